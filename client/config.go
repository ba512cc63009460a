package client

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the client counterpart's YAML configuration: where to dial the
// relay, what local front to accept connections on, and which username to
// present during login. Mirrors server.Config's shape but for the opposite
// side of the handshake, per SPEC_FULL.md §3a's ClientConfig.
type Config struct {
	ServerAddr      string `yaml:"server_addr"`
	LocalListenAddr string `yaml:"local_listen_addr"`
	Username        string `yaml:"username"`
	RemoteAddr      string `yaml:"remote_addr"`
	RemotePort      uint16 `yaml:"remote_port"`
}

// LoadConfig reads path as YAML into a Config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("client: read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("client: parse config %s: %w", path, err)
	}
	return &cfg, nil
}
