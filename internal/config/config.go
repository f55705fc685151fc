// Package config loads vlink's TOML configuration file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// ChannelConfig is the on-disk shape of a vlink channel configuration file.
type ChannelConfig struct {
	Host              string  `toml:"host"`
	Port              uint16  `toml:"port"`
	NumInputs         uint16  `toml:"num_inputs"`
	NumOutputs        uint16  `toml:"num_outputs"`
	IsServer          bool    `toml:"is_server"`
	MaxAgeSeconds     float64 `toml:"max_age_seconds"`
	DelayTracking     bool    `toml:"delay_tracking"`
	SendType          string  `toml:"send_type"`
	SocketTimeoutSec  float64 `toml:"socket_timeout_sec"`
	HandshakeTimeoutS float64 `toml:"handshake_timeout_sec"`
	DebugEnabled      bool    `toml:"debug_enabled"`
	TCPPort           uint16  `toml:"tcp_port"`
}

// LoadChannelConfig reads, parses and defaults a channel configuration file.
func LoadChannelConfig(path string) (ChannelConfig, error) {
	var cfg ChannelConfig
	if err := loadToml(path, &cfg); err != nil {
		return ChannelConfig{}, err
	}
	applyDefaults(&cfg)
	if err := ValidateChannelConfig(cfg); err != nil {
		return ChannelConfig{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *ChannelConfig) {
	if cfg.MaxAgeSeconds == 0 {
		cfg.MaxAgeSeconds = 3.0
	}
	if cfg.SendType == "" {
		cfg.SendType = "f32"
	}
	if cfg.SocketTimeoutSec == 0 {
		cfg.SocketTimeoutSec = 2.0
	}
	if cfg.HandshakeTimeoutS == 0 {
		cfg.HandshakeTimeoutS = 5.0
	}
	if cfg.TCPPort == 0 {
		cfg.TCPPort = 7123
	}
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

// ValidateChannelConfig checks fields that have no safe default.
func ValidateChannelConfig(cfg ChannelConfig) error {
	if !cfg.IsServer && strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("channel config: host required for client mode")
	}
	if cfg.Port == 0 {
		return fmt.Errorf("channel config: port is required")
	}
	if cfg.MaxAgeSeconds < 0 {
		return fmt.Errorf("channel config: max_age_seconds must be non-negative")
	}
	if cfg.SocketTimeoutSec <= 0 {
		return fmt.Errorf("channel config: socket_timeout_sec must be positive")
	}
	return nil
}
