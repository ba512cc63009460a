package client

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/suprohub/mcrelay"
	"github.com/suprohub/mcrelay/packets"
)

// StatusResult is what a Status-path Dial returns: the decoded ping JSON
// and the round-trip payload echoed by CPongResponse.
type StatusResult struct {
	JSON          string
	PingPayload   int64
	EchoedPayload int64
}

// DialStatus opens addr, performs SIntention with NextStateStatus, and
// walks the status ping round trip described in spec.md §4.7's Status
// path, then closes the connection.
func DialStatus(ctx context.Context, addr string, protocolVersion int32) (*StatusResult, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	defer conn.Close()

	io := mcrelay.NewPacketIO(conn)

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		host, portStr = addr, "25565"
	}
	port := parsePortOr(portStr, 25565)

	if err := io.SendPacket(&packets.SIntention{
		ProtocolVersion: protocolVersion,
		ServerAddress:   host,
		ServerPort:      port,
		NextState:       packets.NextStateStatus,
	}); err != nil {
		return nil, fmt.Errorf("client: send intention: %w", err)
	}

	if err := io.SendPacket(&packets.SStatusRequest{}); err != nil {
		return nil, fmt.Errorf("client: send status request: %w", err)
	}
	var resp packets.CStatusResponse
	if err := io.RecvPacket(&resp); err != nil {
		return nil, fmt.Errorf("client: recv status response: %w", err)
	}

	const pingPayload = 1
	if err := io.SendPacket(&packets.SPingRequest{Payload: pingPayload}); err != nil {
		return nil, fmt.Errorf("client: send ping request: %w", err)
	}
	var pong packets.CPongResponse
	if err := io.RecvPacket(&pong); err != nil {
		return nil, fmt.Errorf("client: recv pong response: %w", err)
	}

	return &StatusResult{JSON: resp.JSON, PingPayload: pingPayload, EchoedPayload: pong.Payload}, nil
}

func parsePortOr(s string, fallback uint16) uint16 {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil || n <= 0 || n > 65535 {
		return fallback
	}
	return uint16(n)
}

// Session is a ready, encrypted packet channel past the login handshake,
// for the caller to drive the data-transfer phase with (see tunnel.go's
// Client).
type Session struct {
	IO       *mcrelay.PacketIO
	Username string
	UUID     uuid.UUID
}

// LoginOption supplies the (public uuid, private uuid) pair a server-side
// LoginTable entry would check against, mirroring the identity the source
// would normally fetch from an external service; this relay has none.
type LoginOption struct {
	PublicUUID  uuid.UUID
	PrivateUUID uuid.UUID
}

// DialLogin opens addr and walks spec.md §4.7's Login path: SHello, the RSA
// key exchange, CLoginFinished, SLoginAcknowledged, and SClientInformation,
// returning a Session with encryption already installed on both directions.
func DialLogin(ctx context.Context, addr string, protocolVersion int32, username string, ids LoginOption) (*Session, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}

	io := mcrelay.NewPacketIO(conn)

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		host, portStr = addr, "25565"
	}
	port := parsePortOr(portStr, 25565)

	if err := io.SendPacket(&packets.SIntention{
		ProtocolVersion: protocolVersion,
		ServerAddress:   host,
		ServerPort:      port,
		NextState:       packets.NextStateLogin,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("client: send intention: %w", err)
	}

	if err := io.SendPacket(&packets.SHello{Username: username, UUID: ids.PublicUUID}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("client: send hello: %w", err)
	}

	var encReq packets.CEncryptionRequest
	if err := io.RecvPacket(&encReq); err != nil {
		conn.Close()
		return nil, fmt.Errorf("client: recv encryption request: %w", err)
	}

	pub, err := x509.ParsePKIXPublicKey(encReq.PublicKey)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("client: parse server public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("client: server public key is not RSA")
	}

	sharedSecret := make([]byte, 16)
	if _, err := rand.Read(sharedSecret); err != nil {
		conn.Close()
		return nil, fmt.Errorf("client: generate shared secret: %w", err)
	}

	encSecret, err := rsa.EncryptPKCS1v15(rand.Reader, rsaPub, sharedSecret)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("client: encrypt shared secret: %w", err)
	}
	encToken, err := rsa.EncryptPKCS1v15(rand.Reader, rsaPub, encReq.VerifyToken)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("client: encrypt verify token: %w", err)
	}

	if err := io.SendPacket(&packets.SEncryptionResponse{SharedSecret: encSecret, VerifyToken: encToken}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("client: send encryption response: %w", err)
	}

	streams, err := mcrelay.NewStreamPair(sharedSecret)
	if err != nil {
		conn.Close()
		return nil, err
	}
	io.EnableEncryption(streams)

	var finished packets.CLoginFinished
	if err := io.RecvPacket(&finished); err != nil {
		conn.Close()
		return nil, fmt.Errorf("client: recv login finished: %w", err)
	}

	if err := io.SendPacket(&packets.SLoginAcknowledged{}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("client: send login acknowledged: %w", err)
	}

	if err := io.SendPacket(&packets.SClientInformation{
		Locale:      "en_us",
		MainHand:    packets.MainHandRight,
		PrivateUUID: ids.PrivateUUID,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("client: send client information: %w", err)
	}

	return &Session{IO: io, Username: finished.Username, UUID: finished.UUID}, nil
}
