package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suprohub/mcrelay/server"
)

var genKeyCmd = &cobra.Command{
	Use:   "genkey <path>",
	Short: "generate and persist an RSA key pair for key_path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		_, statErr := os.Stat(path)
		if _, err := server.LoadOrGenerateKeyMaterial(path); err != nil {
			return fmt.Errorf("mcrelay: %w", err)
		}
		if statErr == nil {
			fmt.Printf("loaded existing RSA key pair from %s\n", path)
			return nil
		}
		fmt.Printf("wrote RSA key pair to %s\n", path)
		return nil
	},
}
