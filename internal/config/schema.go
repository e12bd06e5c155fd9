package config

import (
	"time"

	"netdash/internal/logger"
)

// Config is the root configuration structure
type Config struct {
	Version    int              `yaml:"version"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        logger.Config    `yaml:"log"`
	SNMP       SNMPConfig       `yaml:"snmp"`
	Discovery  DiscoveryConfig  `yaml:"discovery"`
	Simulation SimulationConfig `yaml:"simulation"`
	History    HistoryConfig    `yaml:"history"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SNMPConfig holds management protocol client settings
type SNMPConfig struct {
	Port      uint16   `yaml:"port"`
	Community string   `yaml:"community"`
	Timeout   Duration `yaml:"timeout"`
	Retries   int      `yaml:"retries"`
}

// DiscoveryConfig tunes the discovery pass
type DiscoveryConfig struct {
	// Platform overrides detection: windows, linux, darwin, unsupported
	Platform string `yaml:"platform,omitempty"`
	// RefreshConcurrency bounds parallel neighbor refreshes; 1 is sequential
	RefreshConcurrency int `yaml:"refresh_concurrency"`
	// CommandTimeout bounds each external command
	CommandTimeout Duration `yaml:"command_timeout"`
	// SkipPeripherals disables the attached hardware inventory step
	SkipPeripherals bool `yaml:"skip_peripherals"`
	// RefreshInterface also reads interface operational status for neighbors
	RefreshInterface bool `yaml:"refresh_interface"`
	// Sweep configures the optional nmap ping sweep
	Sweep SweepConfig `yaml:"sweep"`
}

// SweepConfig configures the nmap ping sweep that primes the neighbor cache
type SweepConfig struct {
	Enabled bool     `yaml:"enabled"`
	Targets []string `yaml:"targets,omitempty"`
	Timeout Duration `yaml:"timeout"`
}

// SimulationConfig controls the reading simulator
type SimulationConfig struct {
	// Seed makes simulated readings reproducible when non-zero
	Seed uint64 `yaml:"seed,omitempty"`
}

// HistoryConfig sizes the in-memory rolling metrics window
type HistoryConfig struct {
	Size int `yaml:"size"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
