package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "channel.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadChannelConfigDefaults(t *testing.T) {
	path := writeTemp(t, `
host = "127.0.0.1"
port = 9500
num_inputs = 4
num_outputs = 2
`)
	cfg, err := LoadChannelConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxAgeSeconds != 3.0 {
		t.Fatalf("max_age_seconds default = %v", cfg.MaxAgeSeconds)
	}
	if cfg.SendType != "f32" {
		t.Fatalf("send_type default = %q", cfg.SendType)
	}
	if cfg.SocketTimeoutSec != 2.0 {
		t.Fatalf("socket_timeout_sec default = %v", cfg.SocketTimeoutSec)
	}
	if cfg.TCPPort != 7123 {
		t.Fatalf("tcp_port default = %v", cfg.TCPPort)
	}
}

func TestLoadChannelConfigMissingPort(t *testing.T) {
	path := writeTemp(t, `host = "127.0.0.1"`)
	if _, err := LoadChannelConfig(path); err == nil {
		t.Fatalf("expected error for missing port")
	}
}

func TestLoadChannelConfigServerNoHostRequired(t *testing.T) {
	path := writeTemp(t, `
is_server = true
port = 9500
`)
	if _, err := LoadChannelConfig(path); err != nil {
		t.Fatalf("server mode should not require host: %v", err)
	}
}

func TestValidateChannelConfigNegativeMaxAge(t *testing.T) {
	cfg := ChannelConfig{IsServer: true, Port: 1, MaxAgeSeconds: -1, SocketTimeoutSec: 1}
	if err := ValidateChannelConfig(cfg); err == nil {
		t.Fatalf("expected error for negative max_age_seconds")
	}
}
