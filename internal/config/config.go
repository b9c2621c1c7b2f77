// Package config loads and validates the Pulse TOML configuration.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration that unmarshals from TOML strings like "60s" or "2m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	General  General  `toml:"general"`
	Discord  Discord  `toml:"discord"`
	ClickUp  ClickUp  `toml:"clickup"`
	Sessions Sessions `toml:"sessions"`
}

type General struct {
	LogLevel      string `toml:"log_level"`
	StateDB       string `toml:"state_db"`
	Timezone      string `toml:"timezone"`       // default schedule timezone, e.g. "Europe/Paris"
	EncryptionKey string `toml:"encryption_key"` // 32-byte hex key for guild ClickUp tokens
}

type Discord struct {
	Token string `toml:"token"`
	AppID string `toml:"app_id"`
}

type ClickUp struct {
	BaseURL        string   `toml:"base_url"`
	RequestTimeout Duration `toml:"request_timeout"`
}

type Sessions struct {
	DraftTTL      Duration `toml:"draft_ttl"`
	ListTTL       Duration `toml:"list_ttl"`
	SweepInterval Duration `toml:"sweep_interval"`
}

const (
	defaultTimezone       = "Europe/Paris"
	defaultClickUpBaseURL = "https://api.clickup.com/api/v2"
)

// Load reads and validates a config file, applying defaults for optional fields.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", filepath.Base(path), err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.General.Timezone) == "" {
		c.General.Timezone = defaultTimezone
	}
	if strings.TrimSpace(c.General.StateDB) == "" {
		c.General.StateDB = "pulse.db"
	}
	if strings.TrimSpace(c.ClickUp.BaseURL) == "" {
		c.ClickUp.BaseURL = defaultClickUpBaseURL
	}
	if c.ClickUp.RequestTimeout.Duration <= 0 {
		c.ClickUp.RequestTimeout.Duration = 15 * time.Second
	}
	if c.Sessions.DraftTTL.Duration <= 0 {
		c.Sessions.DraftTTL.Duration = 24 * time.Hour
	}
	if c.Sessions.ListTTL.Duration <= 0 {
		c.Sessions.ListTTL.Duration = 30 * time.Minute
	}
	if c.Sessions.SweepInterval.Duration <= 0 {
		c.Sessions.SweepInterval.Duration = 5 * time.Minute
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Discord.Token) == "" {
		return fmt.Errorf("discord.token is required")
	}
	if strings.TrimSpace(c.Discord.AppID) == "" {
		return fmt.Errorf("discord.app_id is required")
	}

	key, err := hex.DecodeString(strings.TrimSpace(c.General.EncryptionKey))
	if err != nil {
		return fmt.Errorf("general.encryption_key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return fmt.Errorf("general.encryption_key must be 32 bytes (64 hex chars), got %d", len(key))
	}

	if _, err := time.LoadLocation(c.General.Timezone); err != nil {
		return fmt.Errorf("general.timezone %q: %w", c.General.Timezone, err)
	}
	return nil
}

// EncryptionKey returns the decoded 32-byte token encryption key.
// Load guarantees it decodes; a zero-value Config returns an empty key.
func (c *Config) EncryptionKey() []byte {
	key, err := hex.DecodeString(strings.TrimSpace(c.General.EncryptionKey))
	if err != nil {
		return nil
	}
	return key
}

// Location returns the configured default timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.General.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ExpandHome expands a leading ~/ to the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
