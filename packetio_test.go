package mcrelay

import (
	"net"
	"testing"
)

func pipePacketIO() (*PacketIO, *PacketIO, func()) {
	a, b := net.Pipe()
	return NewPacketIO(a), NewPacketIO(b), func() {
		a.Close()
		b.Close()
	}
}

func TestPacketIOSendRecv(t *testing.T) {
	client, server, cleanup := pipePacketIO()
	defer cleanup()

	done := make(chan error, 1)
	go func() {
		done <- client.SendPacket(newTestPacket("ping", 1))
	}()

	got := &testPacket{}
	if err := server.RecvPacket(got); err != nil {
		t.Fatalf("RecvPacket: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("SendPacket: %v", err)
	}
	if got.Message != "ping" || got.Count != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestPacketIORecvUnexpectedID(t *testing.T) {
	client, server, cleanup := pipePacketIO()
	defer cleanup()

	otherCat := Register(Clientbound, Play, "other_packet_for_io_test")
	done := make(chan error, 1)
	go func() {
		pkt := newTestPacket("x", 0)
		pkt.cat = otherCat
		done <- client.SendPacket(pkt)
	}()

	got := &testPacket{}
	err := server.RecvPacket(got)
	<-done
	if err != ErrUnexpectedPacket {
		t.Fatalf("expected ErrUnexpectedPacket, got %v", err)
	}
}

func TestPacketIOWithCompressionAndEncryption(t *testing.T) {
	client, server, cleanup := pipePacketIO()
	defer cleanup()

	client.SetCompression(8)
	server.SetCompression(8)

	secret := make([]byte, 16)
	for i := range secret {
		secret[i] = byte(i)
	}
	clientStreams, err := NewStreamPair(secret)
	if err != nil {
		t.Fatalf("NewStreamPair: %v", err)
	}
	serverStreams, err := NewStreamPair(secret)
	if err != nil {
		t.Fatalf("NewStreamPair: %v", err)
	}
	client.EnableEncryption(clientStreams)
	server.EnableEncryption(serverStreams)

	done := make(chan error, 1)
	go func() {
		done <- client.SendPacket(newTestPacket("a longer message to clear the compression threshold", 123))
	}()

	got := &testPacket{}
	if err := server.RecvPacket(got); err != nil {
		t.Fatalf("RecvPacket: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("SendPacket: %v", err)
	}
	if got.Count != 123 {
		t.Errorf("got count %d, want 123", got.Count)
	}
}
