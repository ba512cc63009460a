package mcrelay

import (
	"bytes"
	"strings"
	"testing"
)

// testPacket is a minimal Packet used only to exercise PacketEncoder and
// PacketDecoder end to end; real packet types live in the packets
// subpackage.
type testPacket struct {
	cat     *PacketID
	Message string
	Count   int32
}

var testPacketCat = Register(Clientbound, Play, "test_packet")

func newTestPacket(msg string, count int32) *testPacket {
	return &testPacket{cat: testPacketCat, Message: msg, Count: count}
}

func (p *testPacket) Catalog() *PacketID { return p.cat }

func (p *testPacket) EncodeBody(w *Writer) error {
	w.WriteString(p.Message)
	w.WriteVarInt(p.Count)
	return nil
}

func (p *testPacket) DecodeBody(r *Reader) error {
	msg, err := r.ReadString(0)
	if err != nil {
		return err
	}
	count, err := r.ReadVarInt()
	if err != nil {
		return err
	}
	p.Message = msg
	p.Count = count
	return nil
}

// feedThroughDecoder drives a PacketDecoder with wire bytes delivered in
// arbitrary small chunks, mimicking reads off a real connection, and returns
// every frame it manages to decode.
func feedThroughDecoder(t *testing.T, d *PacketDecoder, wire []byte, chunkSize int) []*Frame {
	t.Helper()
	var frames []*Frame
	for len(wire) > 0 {
		n := chunkSize
		if n > len(wire) {
			n = len(wire)
		}
		dst := d.Reserve(n)
		copy(dst, wire[:n])
		d.QueueBytes(n)
		wire = wire[n:]

		for {
			f, err := d.TryNextPacket()
			if err != nil {
				t.Fatalf("TryNextPacket: %v", err)
			}
			if f == nil {
				break
			}
			body := append([]byte(nil), f.Body...)
			frames = append(frames, &Frame{ID: f.ID, Body: body})
		}
	}
	return frames
}

func TestEncodeDecodeRoundTripUncompressed(t *testing.T) {
	enc := NewPacketEncoder()
	dec := NewPacketDecoder()

	var wire []byte
	var err error
	wire, err = enc.AppendPacket(newTestPacket("hello", 42), wire)
	if err != nil {
		t.Fatalf("AppendPacket: %v", err)
	}
	wire, err = enc.AppendPacket(newTestPacket("world", -1), wire)
	if err != nil {
		t.Fatalf("AppendPacket: %v", err)
	}

	frames := feedThroughDecoder(t, dec, wire, 3)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}

	for i, want := range []struct {
		msg   string
		count int32
	}{{"hello", 42}, {"world", -1}} {
		if frames[i].ID != testPacketCat.ID {
			t.Errorf("frame %d id = %d, want %d", i, frames[i].ID, testPacketCat.ID)
		}
		got := &testPacket{}
		if err := got.DecodeBody(NewReader(frames[i].Body)); err != nil {
			t.Fatalf("DecodeBody: %v", err)
		}
		if got.Message != want.msg || got.Count != want.count {
			t.Errorf("frame %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestEncodeDecodeRoundTripCompressed(t *testing.T) {
	enc := NewPacketEncoder()
	enc.EnableCompression(16)
	dec := NewPacketDecoder()
	dec.EnableCompression(16)

	small := newTestPacket("hi", 1) // below threshold, sent uncompressed
	big := newTestPacket(strings.Repeat("x", 200), 7)

	var wire []byte
	var err error
	wire, err = enc.AppendPacket(small, wire)
	if err != nil {
		t.Fatalf("AppendPacket small: %v", err)
	}
	wire, err = enc.AppendPacket(big, wire)
	if err != nil {
		t.Fatalf("AppendPacket big: %v", err)
	}

	frames := feedThroughDecoder(t, dec, wire, 7)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}

	gotSmall := &testPacket{}
	if err := gotSmall.DecodeBody(NewReader(frames[0].Body)); err != nil {
		t.Fatalf("DecodeBody small: %v", err)
	}
	if gotSmall.Message != small.Message || gotSmall.Count != small.Count {
		t.Errorf("small = %+v, want %+v", gotSmall, small)
	}

	gotBig := &testPacket{}
	if err := gotBig.DecodeBody(NewReader(frames[1].Body)); err != nil {
		t.Fatalf("DecodeBody big: %v", err)
	}
	if gotBig.Message != big.Message || gotBig.Count != big.Count {
		t.Errorf("big message length = %d, want %d", len(gotBig.Message), len(big.Message))
	}
}

func TestEncodeDecodeRoundTripEncrypted(t *testing.T) {
	secret := bytes.Repeat([]byte{0x11}, 16)
	serverStreams, err := NewStreamPair(secret)
	if err != nil {
		t.Fatalf("NewStreamPair server: %v", err)
	}
	clientStreams, err := NewStreamPair(secret)
	if err != nil {
		t.Fatalf("NewStreamPair client: %v", err)
	}

	enc := NewPacketEncoder()
	enc.EnableEncryption(serverStreams.Encrypt)
	dec := NewPacketDecoder()
	dec.EnableEncryption(clientStreams.Decrypt)

	var wire []byte
	wire, err = enc.AppendPacket(newTestPacket("secret", 99), wire)
	if err != nil {
		t.Fatalf("AppendPacket: %v", err)
	}

	frames := feedThroughDecoder(t, dec, wire, 5)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	got := &testPacket{}
	if err := got.DecodeBody(NewReader(frames[0].Body)); err != nil {
		t.Fatalf("DecodeBody: %v", err)
	}
	if got.Message != "secret" || got.Count != 99 {
		t.Errorf("got %+v", got)
	}
}

func TestTryNextPacketWaitsForMoreData(t *testing.T) {
	dec := NewPacketDecoder()
	dst := dec.Reserve(1)
	dst[0] = 0x05 // claims a 5-byte body, but none follows yet
	dec.QueueBytes(1)

	f, err := dec.TryNextPacket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != nil {
		t.Fatalf("expected nil frame for incomplete data, got %+v", f)
	}
}

func TestPacketTooLargeRejected(t *testing.T) {
	dec := NewPacketDecoder()
	dst := dec.Reserve(5)
	n := PutVarInt(dst, MaxPacketSize+1)
	dec.QueueBytes(n)

	_, err := dec.TryNextPacket()
	if err != ErrPacketTooLarge {
		t.Fatalf("expected ErrPacketTooLarge, got %v", err)
	}
}
