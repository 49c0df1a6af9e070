// Package sessionconfig loads the YAML configuration for a spenddag build
// session: which overlay to join, how much to fan out, and how to log.
package sessionconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for a spenddag build session.
type Config struct {
	// Overlay settings
	Overlay OverlayConfig `yaml:"overlay"`

	// Build settings
	Build BuildConfig `yaml:"build"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// OverlayConfig holds the libp2p overlay settings used to reach the
// network this build session audits.
type OverlayConfig struct {
	// ListenAddrs are the multiaddrs to listen on.
	ListenAddrs []string `yaml:"listen_addrs"`

	// BootstrapPeers are the initial peers to connect to.
	BootstrapPeers []string `yaml:"bootstrap_peers"`

	// DHTProtocolPrefix namespaces this overlay's Kademlia protocol IDs
	// so a build session never cross-talks with an unrelated network.
	DHTProtocolPrefix string `yaml:"dht_protocol_prefix"`

	// RequestTimeout bounds a single spend fetch; buildsession.New uses
	// it to derive a Session's per-request deadline.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// IdentityKeyFile is where the libp2p host identity key is persisted.
	// If empty, Join generates an ephemeral identity for that run only.
	IdentityKeyFile string `yaml:"identity_key_file,omitempty"`
}

// BuildConfig holds forward/backward/continuation build parameters.
type BuildConfig struct {
	// MaxParallelism bounds concurrent fetches within one generation or
	// depth of a build.
	MaxParallelism int `yaml:"max_parallelism"`

	// GenesisIDHex and GenesisOutputHex override the default,
	// deterministically-derived genesis keys. Leave empty to use
	// spendmodel.DefaultGenesis().
	GenesisIDHex     string `yaml:"genesis_id_hex,omitempty"`
	GenesisOutputHex string `yaml:"genesis_output_hex,omitempty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `yaml:"level"`

	// File is the log file path (empty for stderr).
	File string `yaml:"file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Overlay: OverlayConfig{
			ListenAddrs: []string{
				"/ip4/0.0.0.0/tcp/4101",
				"/ip4/0.0.0.0/udp/4101/quic-v1",
			},
			BootstrapPeers:    []string{},
			DHTProtocolPrefix: "/spenddag",
			RequestTimeout:    30 * time.Second,
			IdentityKeyFile:   "identity.key",
		},
		Build: BuildConfig{
			MaxParallelism: 32,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// FileName is the default config file name.
const FileName = "spenddag.yaml"

// Load loads configuration from a YAML file in dataDir. If the file
// doesn't exist, it creates one with default values. A relative
// Overlay.IdentityKeyFile is resolved against dataDir.
func Load(dataDir string) (*Config, error) {
	expandedDir := expandPath(dataDir)
	configPath := filepath.Join(expandedDir, FileName)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		cfg.resolveIdentityKeyFile(expandedDir)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.resolveIdentityKeyFile(expandedDir)
	return cfg, nil
}

// resolveIdentityKeyFile joins a relative IdentityKeyFile onto dataDir, the
// same way the config file path itself is resolved.
func (c *Config) resolveIdentityKeyFile(dataDir string) {
	if c.Overlay.IdentityKeyFile != "" && !filepath.IsAbs(c.Overlay.IdentityKeyFile) {
		c.Overlay.IdentityKeyFile = filepath.Join(dataDir, c.Overlay.IdentityKeyFile)
	}
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# spenddag build session configuration\n# generated automatically on first run\n\n")
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Path returns the full path to the config file for the given data
// directory.
func Path(dataDir string) string {
	return filepath.Join(expandPath(dataDir), FileName)
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
