package mcrelay

// PacketEncoder frames packets onto a growable byte buffer: it writes the
// VarInt packet id, the packet's own body encoding, the length prefix(es),
// and — when compression is enabled and the id+body pair is longer than
// CompressionThreshold bytes — zlib-compresses the id+body pair. When a
// cipher is installed the freshly appended frame is encrypted in place
// before AppendPacket returns, so already-buffered frames are never
// re-touched.
type PacketEncoder struct {
	// CompressionThreshold < 0 disables compression entirely. A threshold
	// of 0 compresses every packet; the protocol negotiates the real value
	// via CLoginCompression.
	CompressionThreshold int
	Cipher               *cfb8

	body Writer
}

// NewPacketEncoder returns an encoder with compression disabled.
func NewPacketEncoder() *PacketEncoder {
	return &PacketEncoder{CompressionThreshold: -1, body: *NewWriter()}
}

// EnableCompression turns on zlib framing with the given threshold.
func (e *PacketEncoder) EnableCompression(threshold int) {
	e.CompressionThreshold = threshold
}

// EnableEncryption installs the outbound half of a negotiated stream cipher.
// Every packet appended after this call is encrypted; packets appended
// before it are not.
func (e *PacketEncoder) EnableEncryption(c *cfb8) {
	e.Cipher = c
}

// AppendPacket encodes pkt and appends its wire frame to out, returning the
// extended slice. The frame is exactly what should be written to the
// connection, in order, immediately after any earlier call's output.
func (e *PacketEncoder) AppendPacket(pkt Packet, out []byte) ([]byte, error) {
	e.body.buf = e.body.buf[:0]
	cat := pkt.Catalog()
	e.body.buf = append(e.body.buf, cat.Wire[:cat.WireLen]...)
	if err := pkt.EncodeBody(&e.body); err != nil {
		return out, err
	}
	data := e.body.Bytes()
	if len(data) > MaxPacketSize {
		return out, ErrPacketTooLarge
	}

	start := len(out)
	var err error
	out, err = e.appendFramed(out, data)
	if err != nil {
		return out, err
	}

	if e.Cipher != nil {
		e.Cipher.XORKeyStream(out[start:], out[start:])
	}
	return out, nil
}

// PrependPacket encodes pkt and inserts its wire frame at the front of out,
// ahead of any bytes already staged there. Used for late-arriving headers
// such as CLoginCompression, which must precede a reply already queued
// behind it. The result is bit-identical to encoding pkt into an empty
// buffer and appending the old contents after.
func (e *PacketEncoder) PrependPacket(pkt Packet, out []byte) ([]byte, error) {
	framed, err := e.AppendPacket(pkt, nil)
	if err != nil {
		return out, err
	}
	merged := make([]byte, 0, len(framed)+len(out))
	merged = append(merged, framed...)
	merged = append(merged, out...)
	return merged, nil
}

func (e *PacketEncoder) appendFramed(out []byte, data []byte) ([]byte, error) {
	if e.CompressionThreshold < 0 {
		out = AppendVarInt(out, int32(len(data)))
		out = append(out, data...)
		return out, nil
	}

	if len(data) <= e.CompressionThreshold {
		// Below threshold: data length prefix of 0 signals "not compressed".
		out = AppendVarInt(out, int32(len(data))+1)
		out = AppendVarInt(out, 0)
		out = append(out, data...)
		return out, nil
	}

	compressed, err := compressZlib(data)
	if err != nil {
		return out, err
	}
	dataLenSize := VarIntWrittenSize(int32(len(data)))
	packetLen := dataLenSize + len(compressed)
	if packetLen > MaxPacketSize {
		return out, ErrPacketTooLarge
	}
	out = AppendVarInt(out, int32(packetLen))
	out = AppendVarInt(out, int32(len(data)))
	out = append(out, compressed...)
	return out, nil
}
