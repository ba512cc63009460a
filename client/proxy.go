package client

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"
)

// ServeLocal accepts connections on ln and tunnels each one to
// (remoteIP, remotePort) over c, the client-side analogue of
// server.Server.Serve: one local connection becomes one tunnel for its
// lifetime.
func ServeLocal(ctx context.Context, ln net.Listener, c *Client, remoteIP net.IP, remotePort uint16, log *logrus.Logger) error {
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
			return err
		}
		if err := c.OpenTCPTunnel(conn, remoteIP, remotePort); err != nil {
			log.WithError(err).Warn("open tunnel failed")
			conn.Close()
			continue
		}
	}
}
