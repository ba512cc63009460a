package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/suprohub/mcrelay"
	"github.com/suprohub/mcrelay/client"
)

var connectCmd = &cobra.Command{
	Use:   "connect <config.yaml>",
	Short: "dial a relay server and proxy a local listener through a tunnel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConnect(args[0])
	},
}

func runConnect(configPath string) error {
	cfg, err := client.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("mcrelay: %w", err)
	}
	log := newLogger("info", "text")

	session, err := client.DialLogin(context.Background(), cfg.ServerAddr, mcrelay.CurrentProtocolVersion, cfg.Username, client.LoginOption{
		PublicUUID:  uuid.New(),
		PrivateUUID: uuid.New(),
	})
	if err != nil {
		return fmt.Errorf("mcrelay: login: %w", err)
	}
	log.WithField("username", session.Username).Info("logged in")

	tunnelClient := client.NewClient(session)
	go func() {
		if err := tunnelClient.Run(); err != nil {
			log.WithError(err).Error("tunnel client stopped")
		}
	}()

	ln, err := net.Listen("tcp", cfg.LocalListenAddr)
	if err != nil {
		return fmt.Errorf("mcrelay: listen on %s: %w", cfg.LocalListenAddr, err)
	}
	log.WithField("addr", ln.Addr()).Info("local listener ready")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	return client.ServeLocal(ctx, ln, tunnelClient, net.ParseIP(cfg.RemoteAddr), cfg.RemotePort, log)
}
