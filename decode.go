package mcrelay

import "fmt"

// Frame is one fully-framed, decompressed, decrypted packet pulled off the
// wire: its VarInt id plus the body bytes that follow it. Body aliases the
// decoder's internal buffer (or, for a compressed frame, a freshly
// decompressed buffer) and is only valid until the next call to
// Reserve, QueueBytes, or TryNextPacket — callers must finish decoding it
// (via DecodeBody) before pumping more bytes through the decoder.
type Frame struct {
	ID   int32
	Body []byte
}

// PacketDecoder turns a stream of raw bytes into a sequence of Frames
// without requiring the caller to size reads in advance: Reserve hands back
// spare capacity to read directly into, QueueBytes commits what was read
// (decrypting it in place, exactly once, as it arrives), and TryNextPacket
// attempts to carve one complete frame out of whatever has been queued so
// far. This mirrors a direct-into-buffer, no-intermediate-copy decode loop:
// a partial frame costs nothing beyond the bytes already read.
type PacketDecoder struct {
	// CompressionThreshold < 0 disables the zlib framing layer. Any value
	// >= 0 means the protocol has sent CLoginCompression and every frame is
	// parsed as [dataLen varint][id+body, optionally compressed].
	CompressionThreshold int
	Cipher               *cfb8

	buf []byte
	off int // buf[:off] is already consumed; buf[off:] is pending
}

// NewPacketDecoder returns a decoder with compression disabled.
func NewPacketDecoder() *PacketDecoder {
	return &PacketDecoder{CompressionThreshold: -1}
}

// EnableCompression turns on zlib framing with the given threshold.
func (d *PacketDecoder) EnableCompression(threshold int) {
	d.CompressionThreshold = threshold
}

// EnableEncryption installs the inbound half of a negotiated stream cipher.
// Bytes already queued before this call are not decrypted; only bytes
// queued afterward are.
func (d *PacketDecoder) EnableEncryption(c *cfb8) {
	d.Cipher = c
}

func (d *PacketDecoder) compact() {
	if d.off == 0 {
		return
	}
	n := copy(d.buf, d.buf[d.off:])
	d.buf = d.buf[:n]
	d.off = 0
}

// Reserve returns at least n bytes of spare capacity at the tail of the
// internal buffer, suitable for an io.Reader to read directly into. The
// caller must follow up with QueueBytes(k) for the k <= n bytes actually
// filled.
func (d *PacketDecoder) Reserve(n int) []byte {
	d.compact()
	if cap(d.buf)-len(d.buf) < n {
		grown := make([]byte, len(d.buf), len(d.buf)+n+(len(d.buf)+n)/2+64)
		copy(grown, d.buf)
		d.buf = grown
	}
	return d.buf[len(d.buf) : len(d.buf)+n : cap(d.buf)]
}

// QueueBytes commits the first n bytes of the slice most recently returned
// by Reserve as having been filled with real data, decrypting them in place
// if a cipher is installed.
func (d *PacketDecoder) QueueBytes(n int) {
	tail := d.buf[len(d.buf) : len(d.buf)+n]
	if d.Cipher != nil {
		d.Cipher.XORKeyStream(tail, tail)
	}
	d.buf = d.buf[:len(d.buf)+n]
}

func (d *PacketDecoder) pending() []byte {
	return d.buf[d.off:]
}

// TryNextPacket attempts to decode one complete frame from the bytes queued
// so far. A nil, nil return means the buffer holds an incomplete frame and
// the caller should Reserve/QueueBytes more bytes and try again. Any
// non-nil error is fatal for the connection.
func (d *PacketDecoder) TryNextPacket() (*Frame, error) {
	avail := d.pending()

	packetLen, lenSize, err := DecodeVarInt(avail)
	if err != nil {
		if err == ErrVarIntIncomplete {
			return nil, nil
		}
		return nil, err
	}
	if packetLen < 0 || int(packetLen) > MaxPacketSize {
		return nil, ErrPacketTooLarge
	}

	total := lenSize + int(packetLen)
	if len(avail) < total {
		return nil, nil
	}
	frameBytes := avail[lenSize:total]
	d.off += total

	idBody, err := d.unwrapCompression(frameBytes)
	if err != nil {
		return nil, err
	}

	id, idSize, err := DecodeVarInt(idBody)
	if err != nil {
		return nil, protoErrorf("malformed packet id: %v", err)
	}
	return &Frame{ID: id, Body: idBody[idSize:]}, nil
}

func (d *PacketDecoder) unwrapCompression(frameBytes []byte) ([]byte, error) {
	if d.CompressionThreshold < 0 {
		return frameBytes, nil
	}

	dataLen, dlSize, err := DecodeVarInt(frameBytes)
	if err != nil {
		return nil, protoErrorf("malformed compression header: %v", err)
	}
	rest := frameBytes[dlSize:]
	if dataLen == 0 {
		return rest, nil
	}
	if dataLen < 0 || int(dataLen) > MaxPacketSize {
		return nil, ErrPacketTooLarge
	}
	decompressed, err := decompressZlib(rest, int(dataLen))
	if err != nil {
		return nil, fmt.Errorf("mcrelay: zlib decompress: %w", err)
	}
	if len(decompressed) != int(dataLen) {
		return nil, protoErrorf("decompressed length %d does not match header %d", len(decompressed), dataLen)
	}
	return decompressed, nil
}
