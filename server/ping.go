package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/suprohub/mcrelay"
)

// Version is the version sub-object of a server list ping response.
type Version struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
}

// PlayerSample is one entry in Players.Sample, grounded on
// original_source/server/src/ping.rs's ServerListPing shape.
type PlayerSample struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Players is the players sub-object of a server list ping response.
type Players struct {
	Online int            `json:"online"`
	Max    int            `json:"max"`
	Sample []PlayerSample `json:"sample,omitempty"`
}

// Ping is the JSON descriptor served by CStatusResponse, built once at
// startup from Config and shared by pointer across connections, the
// status-path analogue of KeyMaterial.
type Ping struct {
	Version     Version `json:"version"`
	Players     Players `json:"players"`
	Description any     `json:"description"`
	Favicon     string  `json:"favicon,omitempty"`
}

// NewPing builds the status-ping descriptor served for the lifetime of the
// process from cfg, reading and base64-encoding FaviconPath's PNG when set.
func NewPing(cfg *Config) (*Ping, error) {
	p := &Ping{
		Version: Version{
			Name:     "mcrelay",
			Protocol: mcrelay.CurrentProtocolVersion,
		},
		Players: Players{
			Online: 0,
			Max:    cfg.MaxPlayers,
		},
		Description: cfg.MOTD,
	}
	if cfg.FaviconPath != "" {
		data, err := os.ReadFile(cfg.FaviconPath)
		if err != nil {
			return nil, fmt.Errorf("server: read favicon %s: %w", cfg.FaviconPath, err)
		}
		p.Favicon = "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	}
	return p, nil
}

// JSON renders the descriptor for CStatusResponse's body.
func (p *Ping) JSON() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
