package client

import (
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/suprohub/mcrelay"
	"github.com/suprohub/mcrelay/packets"
)

// tunnelBufferSize bounds one read from a locally-proxied connection before
// it is framed into an SData Process packet.
const tunnelBufferSize = 32 * 1024

// Client drives the data-transfer phase of an established Session: for
// each inbound local connection it opens a tunnel, pumps bytes in both
// directions, and tears the tunnel down when the local connection closes or
// a write to it fails. A close on the remote side is not signalled over the
// wire, so it does not tear the local connection down. Grounded
// on SPEC_FULL.md §4.7b and the reply-pump discipline server.Connection
// uses on the other end of the same wire format.
type Client struct {
	io *mcrelay.PacketIO

	writeMu sync.Mutex

	mu      sync.Mutex
	locals  map[uint16]net.Conn
	connect chan uint16 // delivers the connection id from the most recent CDataConnect ack
}

// NewClient wraps an encrypted Session for the data-transfer phase.
func NewClient(session *Session) *Client {
	return &Client{
		io:      session.IO,
		locals:  make(map[uint16]net.Conn),
		connect: make(chan uint16, 1),
	}
}

func (c *Client) sendPacket(pkt mcrelay.Packet) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.io.SendPacket(pkt)
}

// Run reads CData frames until the connection ends, dispatching Connect
// acks to OpenTCPTunnel callers and Process frames to their local
// connection. It blocks; callers run it in its own goroutine alongside any
// number of OpenTCPTunnel calls.
func (c *Client) Run() error {
	for {
		var data packets.CData
		if err := c.io.RecvPacket(&data); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("client: recv data: %w", err)
		}

		switch data.Type {
		case packets.CDataConnect:
			c.connect <- data.ConnectionID
		case packets.CDataProcess:
			c.mu.Lock()
			local, ok := c.locals[data.ConnectionID]
			c.mu.Unlock()
			if !ok {
				continue
			}
			if _, err := local.Write(data.Data); err != nil {
				c.closeTunnel(data.ConnectionID, local)
			}
		default:
			return fmt.Errorf("client: %w: unhandled CData type %d", mcrelay.ErrProtocol, data.Type)
		}
	}
}

// OpenTCPTunnel requests a TCP tunnel to (ip, port) and, once the server
// acknowledges it with a connection id, pumps local's bytes into it until
// local is closed or the tunnel errors. Only one OpenTCPTunnel call may be
// in flight at a time per Client, since the Connect/ack exchange has no
// client-chosen correlation id on the wire — spec.md §6 assigns the id
// server-side.
func (c *Client) OpenTCPTunnel(local net.Conn, ip net.IP, port uint16) error {
	if err := c.sendPacket(&packets.SData{Type: packets.SDataConnect, IP: ip, Port: port, IsUDP: false}); err != nil {
		return fmt.Errorf("client: send connect: %w", err)
	}

	cid := <-c.connect

	c.mu.Lock()
	c.locals[cid] = local
	c.mu.Unlock()

	go c.pumpLocalToRemote(cid, local)
	return nil
}

func (c *Client) pumpLocalToRemote(cid uint16, local net.Conn) {
	buf := make([]byte, tunnelBufferSize)
	for {
		n, err := local.Read(buf)
		if n > 0 {
			payload := make([]byte, n)
			copy(payload, buf[:n])
			if sendErr := c.sendPacket(&packets.SData{Type: packets.SDataProcess, ConnectionID: cid, Data: payload}); sendErr != nil {
				c.closeTunnel(cid, local)
				return
			}
		}
		if err != nil {
			c.sendPacket(&packets.SData{Type: packets.SDataShutdown, ConnectionID: cid})
			c.closeTunnel(cid, local)
			return
		}
	}
}

func (c *Client) closeTunnel(cid uint16, local net.Conn) {
	c.mu.Lock()
	delete(c.locals, cid)
	c.mu.Unlock()
	local.Close()
}
