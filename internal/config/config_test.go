package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Database.Path == "" {
		t.Error("Database.Path should not be empty")
	}
	if cfg.SNMP.Port != 161 {
		t.Errorf("SNMP.Port = %d, want 161", cfg.SNMP.Port)
	}
	if cfg.SNMP.Community != "public" {
		t.Errorf("SNMP.Community = %s, want public", cfg.SNMP.Community)
	}
	if cfg.SNMP.Timeout.Duration() != time.Second {
		t.Errorf("SNMP.Timeout = %s, want 1s", cfg.SNMP.Timeout.Duration())
	}
	if cfg.SNMP.Retries != 2 {
		t.Errorf("SNMP.Retries = %d, want 2", cfg.SNMP.Retries)
	}
	if cfg.Discovery.RefreshConcurrency != 1 {
		t.Errorf("Discovery.RefreshConcurrency = %d, want 1 (sequential)", cfg.Discovery.RefreshConcurrency)
	}
	if cfg.Discovery.SkipPeripherals {
		t.Error("peripheral inventory should be on by default")
	}
	if cfg.Discovery.Sweep.Enabled {
		t.Error("nmap sweep should be off by default")
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
server:
  addr: 127.0.0.1:9000
snmp:
  community: private
  timeout: 250ms
  retries: 1
discovery:
  platform: linux
  refresh_concurrency: 4
  sweep:
    enabled: true
    targets: [192.168.1.0/24]
history:
  size: 10
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Server.Addr = %s", cfg.Server.Addr)
	}
	if cfg.SNMP.Community != "private" {
		t.Errorf("SNMP.Community = %s, want private", cfg.SNMP.Community)
	}
	if cfg.SNMP.Timeout.Duration() != 250*time.Millisecond {
		t.Errorf("SNMP.Timeout = %s, want 250ms", cfg.SNMP.Timeout.Duration())
	}
	// Port was omitted and must fall back to the default
	if cfg.SNMP.Port != DefaultSNMPPort {
		t.Errorf("SNMP.Port = %d, want %d", cfg.SNMP.Port, DefaultSNMPPort)
	}
	if cfg.Discovery.RefreshConcurrency != 4 {
		t.Errorf("RefreshConcurrency = %d, want 4", cfg.Discovery.RefreshConcurrency)
	}
	if len(cfg.Discovery.Sweep.Targets) != 1 {
		t.Errorf("Sweep.Targets = %v", cfg.Discovery.Sweep.Targets)
	}
	if cfg.History.Size != 10 {
		t.Errorf("History.Size = %d, want 10", cfg.History.Size)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"negative retries", "snmp:\n  retries: -1\n"},
		{"negative concurrency", "discovery:\n  refresh_concurrency: -2\n"},
		{"unknown platform", "discovery:\n  platform: plan9\n"},
		{"sweep without targets", "discovery:\n  sweep:\n    enabled: true\n"},
		{"bad duration", "snmp:\n  timeout: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.SNMP.Community = "lab"
	cfg.Discovery.Sweep.Enabled = true
	cfg.Discovery.Sweep.Targets = []string{"10.0.0.0/24"}

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, path, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %s, want %s", path, configPath)
	}
	if loaded.SNMP.Community != "lab" {
		t.Errorf("SNMP.Community = %s, want lab", loaded.SNMP.Community)
	}
	if loaded.SNMP.Timeout != cfg.SNMP.Timeout {
		t.Errorf("SNMP.Timeout = %s, want %s", loaded.SNMP.Timeout.Duration(), cfg.SNMP.Timeout.Duration())
	}
	if len(loaded.Discovery.Sweep.Targets) != 1 || loaded.Discovery.Sweep.Targets[0] != "10.0.0.0/24" {
		t.Errorf("Sweep.Targets = %v, want [10.0.0.0/24]", loaded.Discovery.Sweep.Targets)
	}
}

func TestLoadFromPathMissing(t *testing.T) {
	if _, _, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	found := FindConfigPath()
	if found == "" {
		t.Error("FindConfigPath() should find config in working directory")
	}

	// Explicit path doesn't exist, should fall back
	t.Setenv(EnvConfigPath, "/nonexistent/path.yaml")
	found = FindConfigPath()
	if found == "" {
		t.Error("FindConfigPath() should fall back when env path doesn't exist")
	}

	// Explicit path that exists wins
	explicit := filepath.Join(t.TempDir(), "explicit.yaml")
	if err := cfg.Save(explicit); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	t.Setenv(EnvConfigPath, explicit)
	if found = FindConfigPath(); found != explicit {
		t.Errorf("FindConfigPath() = %s, want %s", found, explicit)
	}
}

func TestSearchPathsOrder(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvConfigPath, "/tmp/explicit.yaml")
	userDir, err := os.UserConfigDir()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}

	got := searchPaths()
	want := []string{
		"/tmp/explicit.yaml",
		ConfigFileName,
		filepath.Join(userDir, "netdash", "config.yaml"),
		"/etc/netdash/config.yaml",
	}
	if len(got) != len(want) {
		t.Fatalf("searchPaths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("searchPaths()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	t.Setenv(EnvConfigPath, "")
	if got := searchPaths(); got[0] != ConfigFileName {
		t.Errorf("searchPaths()[0] = %s, want %s when env is unset", got[0], ConfigFileName)
	}
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)

	if d.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %s, want 5m", d.Duration())
	}

	marshaled, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	if marshaled != "5m0s" {
		t.Errorf("MarshalYAML() = %v, want 5m0s", marshaled)
	}
}
