package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/suprohub/mcrelay/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve <config.yaml>",
	Short: "run the relay server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(args[0])
	},
}

func runServe(configPath string) error {
	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("mcrelay: %w", err)
	}

	log := newLogger(cfg.Log.Level, cfg.Log.Format)

	srv, err := server.New(cfg, prometheus.DefaultRegisterer, log)
	if err != nil {
		return fmt.Errorf("mcrelay: %w", err)
	}

	if cfg.DebugAddr != "" {
		go server.ServeDebug(cfg.DebugAddr, log)
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("mcrelay: listen on %s: %w", cfg.ListenAddr, err)
	}
	log.WithField("addr", ln.Addr()).Info("listening")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("received shutdown signal")
		cancel()
	}()

	return srv.Serve(ctx, ln)
}

// newLogger builds a logrus.Logger from the config's level/format, in the
// manner of distribution/cmd/registry/main.go's configureLogging.
func newLogger(level, format string) *logrus.Logger {
	log := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
