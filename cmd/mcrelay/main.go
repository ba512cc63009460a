// Command mcrelay is the relay's CLI entry point: a cobra root command with
// serve, genkey, and connect subcommands, in the manner of
// distribution/registry/root.go.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mcrelay",
	Short: "mcrelay is a Minecraft-protocol-compatible TCP/UDP tunnel relay",
	Long:  "mcrelay accepts Minecraft-protocol handshakes and multiplexes arbitrary TCP/UDP tunnels over the resulting encrypted channel.",
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(genKeyCmd)
	rootCmd.AddCommand(connectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
