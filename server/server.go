package server

import (
	"context"
	"errors"
	"net"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Server holds everything immutable for the process lifetime and shared by
// pointer across every accepted connection: key material, the ping
// descriptor, the login table, and the metrics bundle. Grounded on
// original_source/server/src/server.rs's Server struct and
// distribution/cmd/registry/main.go's accept-and-serve shape.
type Server struct {
	Config  *Config
	Keys    *KeyMaterial
	Ping    *Ping
	Logins  LoginTable
	Metrics *Metrics
	Log     *logrus.Logger
}

// New assembles a Server from cfg: it loads or generates RSA key material,
// builds the ping descriptor and login table, and registers metrics against
// reg (pass prometheus.DefaultRegisterer in production, a fresh registry in
// tests).
func New(cfg *Config, reg prometheus.Registerer, log *logrus.Logger) (*Server, error) {
	keys, err := LoadOrGenerateKeyMaterial(cfg.KeyPath)
	if err != nil {
		return nil, err
	}
	ping, err := NewPing(cfg)
	if err != nil {
		return nil, err
	}
	logins, err := cfg.LoginTable()
	if err != nil {
		return nil, err
	}
	return &Server{
		Config:  cfg,
		Keys:    keys,
		Ping:    ping,
		Logins:  logins,
		Metrics: NewMetrics(reg),
		Log:     log,
	}, nil
}

// Serve accepts connections from ln until ctx is cancelled or Accept
// returns a fatal error, spawning one goroutine per connection exactly as
// original_source/server/src/server.rs's Server::start spawns one tokio
// task per accepted stream.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		if tcp, ok := conn.(*net.TCPConn); ok {
			tcp.SetNoDelay(true)
		}

		s.Metrics.ConnectionsAccepted.Inc()
		s.Metrics.ConnectionsActive.Inc()
		connID := uuid.NewString()

		go func() {
			defer s.Metrics.ConnectionsActive.Dec()
			c := newConnection(s, conn, connID)
			if err := c.Handle(ctx); err != nil {
				c.log.WithError(err).Debug("connection ended")
			}
		}()
	}
}
