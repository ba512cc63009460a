package client

import (
	"net"
	"testing"
	"time"

	"github.com/suprohub/mcrelay"
	"github.com/suprohub/mcrelay/packets"
)

// TestClientOpenTCPTunnel drives Client against a hand-held PacketIO playing
// the server's half of the data-transfer wire, exercising OpenTCPTunnel's
// Connect/ack/Process round trip without a real server.Connection.
func TestClientOpenTCPTunnel(t *testing.T) {
	remoteConn, serverSideConn := net.Pipe()
	defer remoteConn.Close()

	serverIO := mcrelay.NewPacketIO(serverSideConn)
	session := &Session{IO: mcrelay.NewPacketIO(remoteConn)}
	c := NewClient(session)

	runErr := make(chan error, 1)
	go func() { runErr <- c.Run() }()

	local, app := net.Pipe()
	defer app.Close()

	openErr := make(chan error, 1)
	go func() { openErr <- c.OpenTCPTunnel(local, net.ParseIP("127.0.0.1"), 25577) }()

	var connectReq packets.SData
	if err := serverIO.RecvPacket(&connectReq); err != nil {
		t.Fatalf("recv connect request: %v", err)
	}
	if connectReq.Type != packets.SDataConnect || connectReq.Port != 25577 {
		t.Fatalf("connectReq = %+v, want Connect to port 25577", connectReq)
	}

	const cid = uint16(7)
	if err := serverIO.SendPacket(&packets.CData{Type: packets.CDataConnect, ConnectionID: cid}); err != nil {
		t.Fatalf("send connect ack: %v", err)
	}

	select {
	case err := <-openErr:
		if err != nil {
			t.Fatalf("OpenTCPTunnel: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OpenTCPTunnel")
	}

	payload := []byte("ping")
	if _, err := app.Write(payload); err != nil {
		t.Fatalf("write to local app conn: %v", err)
	}

	var forwarded packets.SData
	if err := serverIO.RecvPacket(&forwarded); err != nil {
		t.Fatalf("recv forwarded process: %v", err)
	}
	if forwarded.Type != packets.SDataProcess || forwarded.ConnectionID != cid || string(forwarded.Data) != "ping" {
		t.Fatalf("forwarded = %+v, want Process(cid=%d, data=ping)", forwarded, cid)
	}

	reply := []byte("pong")
	if err := serverIO.SendPacket(&packets.CData{Type: packets.CDataProcess, ConnectionID: cid, Data: reply}); err != nil {
		t.Fatalf("send reply: %v", err)
	}

	buf := make([]byte, len(reply))
	app.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := app.Read(buf); err != nil {
		t.Fatalf("read reply at local app conn: %v", err)
	}
	if string(buf) != "pong" {
		t.Fatalf("local app read %q, want pong", buf)
	}

	app.Close()
	select {
	case <-runErr:
	case <-time.After(2 * time.Second):
	}
}
