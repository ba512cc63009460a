package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/suprohub/mcrelay"
	"github.com/suprohub/mcrelay/packets"
)

// udpReadBufferSize sizes the buffer pumpTunnelReplies reads remote TCP
// bytes into, bounding the payload of one CData Process reply frame. The
// shared UDP egress socket is never read from.
const udpReadBufferSize = 65535

// Connection drives one accepted stream through handshake, status or
// login, and into the data-transfer phase. Grounded on
// original_source/server/src/connection.rs's Connection struct, extended
// with the tunnel multiplexing original_source stubs out entirely.
type Connection struct {
	server     *Server
	remoteAddr net.Addr
	io         *mcrelay.PacketIO
	log        *logrus.Entry

	// writeMu serializes every SendPacket call: the data-transfer phase
	// has both the main receive loop and one pumpTunnelReplies goroutine
	// per TCP tunnel writing back over the same PacketIO, and
	// PacketEncoder/PacketIO.SendPacket is not safe for concurrent
	// callers — the same single-writer discipline websocket.Conn's wMux
	// enforces around its own Write.
	writeMu sync.Mutex

	tunnels *tunnelTable
	udpConn *net.UDPConn
}

func newConnection(s *Server, conn net.Conn, connID string) *Connection {
	return &Connection{
		server:     s,
		remoteAddr: conn.RemoteAddr(),
		io:         mcrelay.NewPacketIO(conn),
		log: s.Log.WithFields(logrus.Fields{
			"remote": conn.RemoteAddr().String(),
			"conn":   connID,
		}),
		tunnels: newTunnelTable(),
	}
}

// sendPacket writes pkt under writeMu, the only path any goroutine of this
// connection is allowed to call PacketIO.SendPacket through.
func (c *Connection) sendPacket(pkt mcrelay.Packet) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.io.SendPacket(pkt)
}

// Handle runs the full connection lifecycle: SIntention, then the status or
// login branch it names. Tunnels opened during the data-transfer phase are
// torn down before Handle returns, on every exit path.
func (c *Connection) Handle(ctx context.Context) error {
	defer c.tunnels.closeAll()
	defer func() {
		if c.udpConn != nil {
			c.udpConn.Close()
		}
	}()

	var intention packets.SIntention
	if err := c.io.RecvPacket(&intention); err != nil {
		return fmt.Errorf("server: recv intention: %w", err)
	}

	switch intention.NextState {
	case packets.NextStateStatus:
		return c.handleStatus()
	case packets.NextStateLogin:
		return c.handleLogin(ctx, intention.ProtocolVersion)
	default:
		return fmt.Errorf("server: unhandled next_state %d", intention.NextState)
	}
}

func (c *Connection) handleStatus() error {
	var req packets.SStatusRequest
	if err := c.io.RecvPacket(&req); err != nil {
		return fmt.Errorf("server: recv status request: %w", err)
	}

	json, err := c.server.Ping.JSON()
	if err != nil {
		return fmt.Errorf("server: render ping descriptor: %w", err)
	}
	if err := c.sendPacket(&packets.CStatusResponse{JSON: json}); err != nil {
		return fmt.Errorf("server: send status response: %w", err)
	}

	var ping packets.SPingRequest
	if err := c.io.RecvPacket(&ping); err != nil {
		return fmt.Errorf("server: recv ping request: %w", err)
	}
	if err := c.sendPacket(&packets.CPongResponse{Payload: ping.Payload}); err != nil {
		return fmt.Errorf("server: send pong response: %w", err)
	}

	c.log.Info("accepted status")
	return nil
}

// disconnectLogin sends CLoginDisconnect with reason and reports the
// failure to the handshake-failures metric, matching original_source's
// "send a disconnect and terminate" rejection shape.
func (c *Connection) disconnectLogin(reason string) error {
	c.server.Metrics.HandshakeFailures.WithLabelValues("login").Inc()
	if err := c.sendPacket(&packets.CLoginDisconnect{Reason: reason}); err != nil {
		return fmt.Errorf("server: send login disconnect: %w", err)
	}
	return nil
}

func (c *Connection) handleLogin(ctx context.Context, protocolVersion int32) error {
	if protocolVersion != mcrelay.CurrentProtocolVersion {
		return c.disconnectLogin(fmt.Sprintf("unsupported protocol version %d", protocolVersion))
	}

	var hello packets.SHello
	if err := c.io.RecvPacket(&hello); err != nil {
		return fmt.Errorf("server: recv hello: %w", err)
	}

	entry, ok := c.server.Logins.Lookup(hello.Username)
	if !ok || entry.PublicUUID != hello.UUID {
		return c.disconnectLogin("unknown user")
	}

	if err := c.encryptionExchange(); err != nil {
		c.server.Metrics.HandshakeFailures.WithLabelValues("encrypt").Inc()
		return fmt.Errorf("server: encryption exchange: %w", err)
	}

	if err := c.sendPacket(&packets.CLoginFinished{UUID: hello.UUID, Username: hello.Username}); err != nil {
		return fmt.Errorf("server: send login finished: %w", err)
	}

	var ack packets.SLoginAcknowledged
	if err := c.io.RecvPacket(&ack); err != nil {
		return fmt.Errorf("server: recv login acknowledged: %w", err)
	}

	var info packets.SClientInformation
	if err := c.io.RecvPacket(&info); err != nil {
		return fmt.Errorf("server: recv client information: %w", err)
	}
	if info.PrivateUUID != entry.PrivateUUID {
		// Past this point the channel is already encrypted, so a
		// CLoginDisconnect is not meaningful to send — spec.md §7's
		// "post-encryption handshake failures log a warning" applies.
		c.server.Metrics.HandshakeFailures.WithLabelValues("encrypt").Inc()
		c.log.Warn("client_information private uuid mismatch, suspected MITM")
		return fmt.Errorf("server: private uuid mismatch for %s", hello.Username)
	}

	c.log.WithField("username", hello.Username).Info("accepted login")
	return c.dataTransferLoop(ctx)
}

// encryptionExchange performs the RSA key exchange steps of spec.md §4.7:
// send a random verify token and the server's public key, unwrap the
// client's response with the server's private key, and install a
// symmetric AES-128 CFB-8 stream pair on both directions of c.io.
func (c *Connection) encryptionExchange() error {
	verifyToken := make([]byte, 16)
	if _, err := rand.Read(verifyToken); err != nil {
		return fmt.Errorf("generate verify token: %w", err)
	}

	req := &packets.CEncryptionRequest{
		ServerID:     "",
		PublicKey:    c.server.Keys.PublicDER,
		VerifyToken:  verifyToken,
		ShouldVerify: false,
	}
	if err := c.sendPacket(req); err != nil {
		return fmt.Errorf("send encryption request: %w", err)
	}

	var resp packets.SEncryptionResponse
	if err := c.io.RecvPacket(&resp); err != nil {
		return fmt.Errorf("recv encryption response: %w", err)
	}

	sharedSecret, err := rsa.DecryptPKCS1v15(rand.Reader, c.server.Keys.Private, resp.SharedSecret)
	if err != nil {
		return fmt.Errorf("decrypt shared secret: %w", err)
	}
	echoedToken, err := rsa.DecryptPKCS1v15(rand.Reader, c.server.Keys.Private, resp.VerifyToken)
	if err != nil {
		return fmt.Errorf("decrypt verify token: %w", err)
	}
	if !bytesEqual(echoedToken, verifyToken) {
		return fmt.Errorf("verify token mismatch")
	}
	if len(sharedSecret) != 16 {
		return fmt.Errorf("shared secret must be 16 bytes, got %d", len(sharedSecret))
	}

	streams, err := mcrelay.NewStreamPair(sharedSecret)
	if err != nil {
		return err
	}
	c.io.EnableEncryption(streams)
	c.log.Debug("base encryption enabled")
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// dataTransferLoop multiplexes tunnels over the now-encrypted channel, per
// spec.md §4.7's Connect/Process/Shutdown semantics. It additionally pumps
// reply bytes from TCP tunnels back to the client (spec.md §9's resolved
// Open Question 1); UDP tunnels are not pumped back, for the reason
// recorded in SPEC_FULL.md §9.
func (c *Connection) dataTransferLoop(ctx context.Context) error {
	udpConn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		return fmt.Errorf("server: bind udp egress socket: %w", err)
	}
	c.udpConn = udpConn

	for {
		var data packets.SData
		if err := c.io.RecvPacket(&data); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("server: recv data: %w", err)
		}

		switch data.Type {
		case packets.SDataConnect:
			if err := c.handleConnect(&data); err != nil {
				return err
			}
		case packets.SDataProcess:
			if err := c.handleProcess(&data); err != nil {
				return err
			}
		case packets.SDataShutdown:
			if err := c.tunnels.remove(data.ConnectionID); err != nil {
				c.log.WithError(err).Warn("shutdown tunnel close failed")
			}
			c.server.Metrics.TunnelsActive.Dec()
		default:
			return fmt.Errorf("server: unhandled SData type %d", data.Type)
		}
	}
}

func (c *Connection) handleConnect(data *packets.SData) error {
	cid := c.tunnels.allocate()

	if data.IsUDP {
		c.tunnels.put(cid, &Tunnel{IsUDP: true, UDP: &net.UDPAddr{IP: data.IP, Port: int(data.Port)}})
	} else {
		tcpConn, err := dialTCP(data.IP, data.Port)
		if err != nil {
			return fmt.Errorf("server: dial tunnel target %s:%d: %w", data.IP, data.Port, err)
		}
		c.tunnels.put(cid, &Tunnel{TCP: tcpConn})
		go c.pumpTunnelReplies(cid, tcpConn)
	}
	c.server.Metrics.TunnelsActive.Inc()

	return c.sendPacket(&packets.CData{
		Type:         packets.CDataConnect,
		IP:           data.IP,
		Port:         data.Port,
		IsUDP:        data.IsUDP,
		ConnectionID: cid,
	})
}

func (c *Connection) handleProcess(data *packets.SData) error {
	tun, ok := c.tunnels.get(data.ConnectionID)
	if !ok {
		return fmt.Errorf("server: %w: unknown connection id %d", mcrelay.ErrProtocol, data.ConnectionID)
	}

	if tun.IsUDP {
		if _, err := c.udpConn.WriteTo(data.Data, tun.UDP); err != nil {
			return fmt.Errorf("server: udp send to %s: %w", tun.UDP, err)
		}
		c.server.Metrics.TunnelBytes.WithLabelValues("out", "udp").Add(float64(len(data.Data)))
		return nil
	}

	if _, err := tun.TCP.Write(data.Data); err != nil {
		return fmt.Errorf("server: tcp write to tunnel %d: %w", data.ConnectionID, err)
	}
	c.server.Metrics.TunnelBytes.WithLabelValues("out", "tcp").Add(float64(len(data.Data)))
	return nil
}

// pumpTunnelReplies reads remote bytes off a TCP tunnel and relays them
// back to the client as CData Process frames until the remote closes or
// errors, at which point it gives up silently — the tunnel's owning
// Connection.dataTransferLoop is the only place allowed to react to tunnel
// lifecycle, this goroutine only moves bytes.
func (c *Connection) pumpTunnelReplies(cid uint16, conn net.Conn) {
	buf := make([]byte, udpReadBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			payload := make([]byte, n)
			copy(payload, buf[:n])
			sendErr := c.sendPacket(&packets.CData{
				Type:         packets.CDataProcess,
				ConnectionID: cid,
				Data:         payload,
			})
			if sendErr != nil {
				c.log.WithError(sendErr).Debug("reply pump send failed")
				return
			}
			c.server.Metrics.TunnelBytes.WithLabelValues("in", "tcp").Add(float64(n))
		}
		if err != nil {
			return
		}
	}
}
