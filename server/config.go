package server

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"
)

func parseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// envPrefix is the environment-variable namespace config overrides live
// under, in the manner of distribution/configuration's PREFIX_FIELD_NAME
// scheme (v.Abc.Xyz overridden by PREFIX_ABC_XYZ).
const envPrefix = "MCRELAY"

// LogConfig controls the structured logger installed at startup.
type LogConfig struct {
	// Level is a logrus.ParseLevel string: "debug", "info", "warn", "error".
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Config is the relay server's YAML configuration, with environment
// variable overrides applied on top per field, following
// distribution/configuration's Parser.overwriteFields approach scoped down
// to a single, unversioned struct.
type Config struct {
	// ListenAddr is the address the relay accepts Minecraft-protocol
	// connections on.
	ListenAddr string `yaml:"listen_addr"`
	// DebugAddr serves /metrics, /debug/pprof/*, and /debug/vars when
	// non-empty. Empty disables the debug listener entirely.
	DebugAddr string `yaml:"debug_addr"`
	// MOTD is the description text served in the status ping response.
	MOTD string `yaml:"motd"`
	// MaxPlayers is the advertised player cap in the status ping response.
	MaxPlayers int `yaml:"max_players"`
	// FaviconPath is an optional PNG file, base64-encoded into the ping
	// descriptor's favicon field. Empty omits the field.
	FaviconPath string `yaml:"favicon_path"`
	// KeyPath optionally persists/reloads the RSA key material across
	// restarts. Empty generates a fresh ephemeral key every process start,
	// matching original_source/server/src/server.rs's RsaPrivateKey::new.
	KeyPath string `yaml:"key_path"`
	// CompressionThreshold is parsed from YAML (negative meaning disabled),
	// but the connection handler never sends CLoginCompression or enables
	// compression, so the value has no effect on the wire.
	CompressionThreshold int `yaml:"compression_threshold"`

	Log LogConfig `yaml:"log"`

	// Users is the static login table: username to its provisioned
	// (public uuid, private uuid) pair. This relay has no external
	// identity service, so the table is the whole of admission control.
	Users map[string]LoginTableEntryConfig `yaml:"users"`
}

// LoginTableEntryConfig is Config.Users' YAML shape; LoginTable() converts
// it to the parsed uuid.UUID form the connection handler consults.
type LoginTableEntryConfig struct {
	PublicUUID  string `yaml:"public_uuid"`
	PrivateUUID string `yaml:"private_uuid"`
}

// DefaultConfig returns a Config with the values the relay falls back to
// when a field is left unset in YAML, mirroring the zero-config defaults
// a fresh registry.Configuration would have before a file is read.
func DefaultConfig() Config {
	return Config{
		ListenAddr:           ":25565",
		MOTD:                 "A Relay Server",
		MaxPlayers:           20,
		CompressionThreshold: -1,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads path as YAML into DefaultConfig()'s zero values, then
// applies MCRELAY_-prefixed environment variable overrides over the parsed
// result.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("server: parse config %s: %w", path, err)
	}
	if err := overwriteFromEnv(&cfg, envPrefix); err != nil {
		return nil, fmt.Errorf("server: apply environment overrides: %w", err)
	}
	return &cfg, nil
}

// overwriteFromEnv walks v's exported fields and, for each leaf of a
// primitive kind, checks for an environment variable named
// prefix_FIELD_SUBFIELD (upper-cased) and assigns it if present. Scoped-down
// relative of distribution/configuration.Parser.overwriteFields: no
// map/slice support, since Config's only map field (Users) is provisioned
// exclusively via YAML.
func overwriteFromEnv(v any, prefix string) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		return fmt.Errorf("overwriteFromEnv: v must be a pointer, got %T", v)
	}
	return overwriteStruct(rv.Elem(), prefix)
}

func overwriteStruct(rv reflect.Value, prefix string) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		fv := rv.Field(i)
		name := prefix + "_" + strings.ToUpper(field.Name)

		switch fv.Kind() {
		case reflect.Struct:
			if err := overwriteStruct(fv, name); err != nil {
				return err
			}
			continue
		case reflect.Map:
			continue
		}

		raw, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		if err := setScalar(fv, raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func setScalar(fv reflect.Value, raw string) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	default:
		return fmt.Errorf("unsupported field kind %s", fv.Kind())
	}
	return nil
}

// LoginTable converts Config.Users into the uuid-parsed LoginTable the
// connection handler consults during SHello.
func (c *Config) LoginTable() (LoginTable, error) {
	table := make(LoginTable, len(c.Users))
	for username, entry := range c.Users {
		pub, err := parseUUID(entry.PublicUUID)
		if err != nil {
			return nil, fmt.Errorf("user %q: public_uuid: %w", username, err)
		}
		priv, err := parseUUID(entry.PrivateUUID)
		if err != nil {
			return nil, fmt.Errorf("user %q: private_uuid: %w", username, err)
		}
		table[username] = LoginTableEntry{PublicUUID: pub, PrivateUUID: priv}
	}
	return table, nil
}
