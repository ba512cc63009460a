package mcrelay

import (
	"encoding/binary"
	"net"

	"github.com/google/uuid"
)

// Writer accumulates the encoded body of a single packet. It never returns
// errors itself — out-of-range input is a programmer error, not a runtime
// one — callers that need fallible encoding (e.g. bounded values) check
// before writing.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with buf pre-reserved, sized for typical packet
// bodies to avoid early reallocation.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

func (w *Writer) Bytes() []byte { return w.buf }
func (w *Writer) Len() int      { return len(w.buf) }

func (w *Writer) WriteBool(b bool) {
	if b {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) WriteU8(v uint8)   { w.buf = append(w.buf, v) }
func (w *Writer) WriteI8(v int8)    { w.buf = append(w.buf, byte(v)) }

func (w *Writer) WriteU16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}
func (w *Writer) WriteI16(v int16) { w.WriteU16(uint16(v)) }

func (w *Writer) WriteU32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}
func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }

func (w *Writer) WriteU64(v uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}
func (w *Writer) WriteI64(v int64) { w.WriteU64(uint64(v)) }

func (w *Writer) WriteF32(v float32) { w.WriteU32(uint32(v)) }

func (w *Writer) WriteVarInt(v int32) {
	w.buf = AppendVarInt(w.buf, v)
}

// WriteString writes a VarInt byte-length prefix followed by the UTF-8
// bytes. No bound is checked here; bounds are enforced only on the read
// side, by the maxChars argument to Reader.ReadString.
func (w *Writer) WriteString(s string) {
	w.WriteVarInt(int32(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteByteArray writes a VarInt byte-length prefix followed by raw bytes,
// the slice analogue of WriteString.
func (w *Writer) WriteByteArray(b []byte) {
	w.WriteVarInt(int32(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteRawBytes appends b with no length prefix, for trailing
// fill-the-rest-of-the-packet fields.
func (w *Writer) WriteRawBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *Writer) WriteUUID(id uuid.UUID) {
	w.buf = append(w.buf, id[:]...)
}

// WriteIPAddr writes a u8 tag (0 = v4, 1 = v6) followed by the 4- or
// 16-byte address, used by the tunnel Connect variants.
func (w *Writer) WriteIPAddr(ip net.IP) {
	if v4 := ip.To4(); v4 != nil {
		w.WriteU8(0)
		w.buf = append(w.buf, v4...)
		return
	}
	w.WriteU8(1)
	w.buf = append(w.buf, ip.To16()...)
}

// WriteAddrPort writes an IP address as a length-prefixed string plus a
// big-endian u16 port, the wire shape original game clients expect.
func (w *Writer) WriteAddrPort(host string, port uint16) {
	w.WriteString(host)
	w.WriteU16(port)
}

// Reader consumes a packet body previously isolated by PacketDecoder. Its
// methods return ErrProtocol (via protoErrorf) on malformed input, except
// that a VarInt longer than MaxVarIntLen surfaces as ErrVarIntTooLarge; they
// never panic on truncated input.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns the bytes not yet consumed.
func (r *Reader) Remaining() []byte { return r.buf[r.pos:] }

func (r *Reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, protoErrorf("unexpected end of packet body, need %d bytes, have %d", n, len(r.buf)-r.pos)
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, protoErrorf("bool byte out of range: %d", b[0])
	}
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadI8() (int8, error) {
	b, err := r.ReadU8()
	return int8(b), err
}

func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	return float32(v), err
}

func (r *Reader) ReadVarInt() (int32, error) {
	v, n, err := DecodeVarInt(r.Remaining())
	if err != nil {
		if err == ErrVarIntIncomplete {
			return 0, protoErrorf("truncated varint")
		}
		return 0, err
	}
	r.pos += n
	return v, nil
}

// ReadString reads a VarInt byte-length prefix and that many bytes, rejecting
// the value if its rune count exceeds maxChars. maxChars <= 0 means
// unbounded.
func (r *Reader) ReadString(maxChars int) (string, error) {
	n, err := r.ReadVarInt()
	if err != nil {
		return "", err
	}
	if n < 0 || n > MaxPacketSize {
		return "", protoErrorf("string length out of range: %d", n)
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	s := string(b)
	if maxChars > 0 && len([]rune(s)) > maxChars {
		return "", protoErrorf("string exceeds bound of %d characters", maxChars)
	}
	return s, nil
}

// ReadByteArray reads a VarInt byte-length prefix and that many raw bytes,
// rejecting the value if its length exceeds maxLen. maxLen <= 0 means
// unbounded.
func (r *Reader) ReadByteArray(maxLen int) ([]byte, error) {
	n, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if n < 0 || (maxLen > 0 && int(n) > maxLen) {
		return nil, protoErrorf("byte array length out of range: %d", n)
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadRawBytes reads exactly n raw bytes with no length prefix.
func (r *Reader) ReadRawBytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadRestAsBytes consumes and returns all bytes left in the body, for
// trailing fill-the-rest-of-the-packet fields. The returned slice aliases
// the Reader's buffer.
func (r *Reader) ReadRestAsBytes() []byte {
	out := r.buf[r.pos:]
	r.pos = len(r.buf)
	return out
}

// ReadIPAddr reads a u8 tag (0 = v4, 1 = v6) followed by the matching
// 4- or 16-byte address.
func (r *Reader) ReadIPAddr() (net.IP, error) {
	tag, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		b, err := r.take(4)
		if err != nil {
			return nil, err
		}
		ip := make(net.IP, 4)
		copy(ip, b)
		return ip, nil
	case 1:
		b, err := r.take(16)
		if err != nil {
			return nil, err
		}
		ip := make(net.IP, 16)
		copy(ip, b)
		return ip, nil
	default:
		return nil, protoErrorf("ip address tag out of range: %d", tag)
	}
}

func (r *Reader) ReadUUID() (uuid.UUID, error) {
	b, err := r.take(16)
	if err != nil {
		return uuid.UUID{}, err
	}
	var id uuid.UUID
	copy(id[:], b)
	return id, nil
}

// ReadAddrPort reads a length-prefixed host string followed by a big-endian
// u16 port.
func (r *Reader) ReadAddrPort(maxHostChars int) (string, uint16, error) {
	host, err := r.ReadString(maxHostChars)
	if err != nil {
		return "", 0, err
	}
	port, err := r.ReadU16()
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

// WriteOption writes the presence flag for o and, when present, encodes the
// value with encode.
func WriteOption[T any](w *Writer, o Option[T], encode func(*Writer, T)) {
	w.WriteBool(o.Present)
	if o.Present {
		encode(w, o.Value)
	}
}

// ReadOption reads the presence flag and, when present, decodes the value
// with decode.
func ReadOption[T any](r *Reader, decode func(*Reader) (T, error)) (Option[T], error) {
	present, err := r.ReadBool()
	if err != nil {
		return Option[T]{}, err
	}
	if !present {
		return Option[T]{}, nil
	}
	v, err := decode(r)
	if err != nil {
		return Option[T]{}, err
	}
	return Some(v), nil
}

// netIPFromAddrPort parses a host string that may be a literal IPv4/IPv6
// address, returning nil if it is a hostname instead.
func netIPFromAddrPort(host string) net.IP {
	return net.ParseIP(host)
}
