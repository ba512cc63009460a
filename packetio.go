package mcrelay

import (
	"io"
	"net"
)

// readChunk is how many spare bytes PacketIO reserves per Read call. Real
// frames are almost always much smaller; this just avoids one syscall per
// tiny read once a connection is warmed up.
const readChunk = 4096

// PacketIO drives PacketEncoder and PacketDecoder over a net.Conn, giving
// callers a packet-at-a-time blocking API while each connection Read goes
// directly into the decoder's own buffer, with no intermediate copy.
type PacketIO struct {
	conn net.Conn
	enc  *PacketEncoder
	dec  *PacketDecoder
}

// NewPacketIO wraps conn with fresh, uncompressed, unencrypted encoder and
// decoder state.
func NewPacketIO(conn net.Conn) *PacketIO {
	return &PacketIO{
		conn: conn,
		enc:  NewPacketEncoder(),
		dec:  NewPacketDecoder(),
	}
}

// Conn returns the underlying connection, for callers that need to tweak
// socket options or read remote/local addresses.
func (p *PacketIO) Conn() net.Conn { return p.conn }

// SetCompression enables zlib framing on both directions with the given
// threshold, as negotiated by CLoginCompression.
func (p *PacketIO) SetCompression(threshold int) {
	p.enc.EnableCompression(threshold)
	p.dec.EnableCompression(threshold)
}

// EnableEncryption installs a negotiated AES-128 CFB-8 stream cipher pair on
// both directions. Frames sent or received before this call are unaffected.
func (p *PacketIO) EnableEncryption(streams *StreamPair) {
	p.enc.EnableEncryption(streams.Encrypt)
	p.dec.EnableEncryption(streams.Decrypt)
}

// SendPacket encodes pkt and writes its frame to the connection in one Write
// call.
func (p *PacketIO) SendPacket(pkt Packet) error {
	buf, err := p.enc.AppendPacket(pkt, nil)
	if err != nil {
		return err
	}
	_, err = p.conn.Write(buf)
	return err
}

// RecvFrame blocks until one full frame is available, reading from the
// connection as needed, and returns it. The returned Frame's Body aliases
// internal state and is only valid until the next RecvFrame call.
func (p *PacketIO) RecvFrame() (*Frame, error) {
	for {
		f, err := p.dec.TryNextPacket()
		if err != nil {
			return nil, err
		}
		if f != nil {
			return f, nil
		}
		dst := p.dec.Reserve(readChunk)
		n, err := p.conn.Read(dst)
		if n > 0 {
			p.dec.QueueBytes(n)
		}
		if err != nil {
			if n > 0 && err == io.EOF {
				// try once more to drain a frame that completed exactly at EOF
				continue
			}
			return nil, err
		}
	}
}

// RecvPacket blocks for the next frame and decodes its body into pkt,
// returning ErrUnexpectedPacket if the frame's id does not match pkt's
// catalog id.
func (p *PacketIO) RecvPacket(pkt Packet) error {
	f, err := p.RecvFrame()
	if err != nil {
		return err
	}
	cat := pkt.Catalog()
	if f.ID != cat.ID {
		return ErrUnexpectedPacket
	}
	return pkt.DecodeBody(NewReader(f.Body))
}
