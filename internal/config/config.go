// Package config provides configuration management for NetDash.
//
// Config file locations (priority order):
//  1. $NETDASH_CONFIG
//  2. ./netdash.yaml
//  3. $XDG_CONFIG_HOME/netdash/config.yaml (os.UserConfigDir)
//  4. /etc/netdash/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for a new installation
const (
	DefaultAddr               = ":8080"
	DefaultDatabasePath       = "./netdash.db"
	DefaultSNMPPort           = 161
	DefaultSNMPCommunity      = "public"
	DefaultSNMPTimeout        = time.Second
	DefaultSNMPRetries        = 2
	DefaultRefreshConcurrency = 1
	DefaultCommandTimeout     = 10 * time.Second
	DefaultSweepTimeout       = 30 * time.Second
	DefaultHistorySize        = 60
	DefaultShutdownTimeout    = 10 * time.Second
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "NETDASH_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "netdash.yaml"
)

// searchPaths lists config candidates, highest priority first. An unset
// $NETDASH_CONFIG or home directory contributes nothing.
func searchPaths() []string {
	var paths []string
	if explicit := os.Getenv(EnvConfigPath); explicit != "" {
		paths = append(paths, explicit)
	}
	paths = append(paths, ConfigFileName)
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "netdash", "config.yaml"))
	}
	return append(paths, "/etc/netdash/config.yaml")
}

// FindConfigPath returns the first existing candidate from searchPaths,
// or "" when there is none
func FindConfigPath() string {
	for _, path := range searchPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// Parse decodes YAML config data and fills in defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.SNMP.Port == 0 {
		c.SNMP.Port = DefaultSNMPPort
	}
	if c.SNMP.Community == "" {
		c.SNMP.Community = DefaultSNMPCommunity
	}
	if c.SNMP.Timeout == 0 {
		c.SNMP.Timeout = Duration(DefaultSNMPTimeout)
	}
	if c.SNMP.Retries == 0 {
		c.SNMP.Retries = DefaultSNMPRetries
	}
	if c.Discovery.RefreshConcurrency == 0 {
		c.Discovery.RefreshConcurrency = DefaultRefreshConcurrency
	}
	if c.Discovery.CommandTimeout == 0 {
		c.Discovery.CommandTimeout = Duration(DefaultCommandTimeout)
	}
	if c.Discovery.Sweep.Timeout == 0 {
		c.Discovery.Sweep.Timeout = Duration(DefaultSweepTimeout)
	}
	if c.History.Size == 0 {
		c.History.Size = DefaultHistorySize
	}
}

// Validate rejects settings that cannot be honored
func (c *Config) Validate() error {
	if c.SNMP.Retries < 0 {
		return fmt.Errorf("snmp.retries must not be negative, got %d", c.SNMP.Retries)
	}
	if c.Discovery.RefreshConcurrency < 1 {
		return fmt.Errorf("discovery.refresh_concurrency must be at least 1, got %d", c.Discovery.RefreshConcurrency)
	}
	if c.History.Size < 1 {
		return fmt.Errorf("history.size must be at least 1, got %d", c.History.Size)
	}
	switch c.Discovery.Platform {
	case "", "windows", "linux", "darwin", "unsupported":
	default:
		return fmt.Errorf("discovery.platform %q is not recognized", c.Discovery.Platform)
	}
	if c.Discovery.Sweep.Enabled && len(c.Discovery.Sweep.Targets) == 0 {
		return fmt.Errorf("discovery.sweep.targets required when sweep is enabled")
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Listen: %s, Database: %s\n", c.Server.Addr, c.Database.Path)
	summary += fmt.Sprintf("SNMP: port %d, timeout %s, retries %d\n",
		c.SNMP.Port, c.SNMP.Timeout.Duration(), c.SNMP.Retries)
	summary += fmt.Sprintf("Discovery: concurrency %d, peripherals %v, sweep %v",
		c.Discovery.RefreshConcurrency, !c.Discovery.SkipPeripherals, c.Discovery.Sweep.Enabled)
	return summary
}
