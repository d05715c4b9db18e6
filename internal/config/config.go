// Package config loads folio settings from an optional YAML file overlaid
// with environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"folio/internal/mailer"
	"folio/internal/util"
)

// Config is the complete server configuration.
type Config struct {
	Addr      string        `yaml:"addr"`
	DataDir   string        `yaml:"data_dir"`
	StaticDir string        `yaml:"static_dir"`
	Slot      string        `yaml:"slot"`
	Tasks     TasksConfig   `yaml:"tasks"`
	Mail      mailer.Config `yaml:"mail"`
}

// TasksConfig tunes the task manager timers.
type TasksConfig struct {
	// SaveLatency is how long the save indicator stays on after a change.
	SaveLatency time.Duration `yaml:"save_latency"`
	// NoteQuietPeriod is the debounce window for note edits.
	NoteQuietPeriod time.Duration `yaml:"note_quiet_period"`
}

// DefaultConfig returns a Config with the stock settings.
func DefaultConfig() *Config {
	return &Config{
		Addr:      ":8080",
		DataDir:   "data",
		StaticDir: "web/dist",
		Slot:      "root",
		Tasks: TasksConfig{
			SaveLatency:     time.Second,
			NoteQuietPeriod: 500 * time.Millisecond,
		},
		Mail: mailer.Config{
			Port:    587,
			Timeout: 15 * time.Second,
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies the
// environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from FOLIO_*, SMTP_* and RECIPIENT_EMAIL.
func (c *Config) ApplyEnv() {
	c.Addr = util.EnvOrDefault("FOLIO_ADDR", c.Addr)
	c.DataDir = util.EnvOrDefault("FOLIO_DATA_DIR", c.DataDir)
	c.StaticDir = util.EnvOrDefault("FOLIO_STATIC_DIR", c.StaticDir)
	c.Slot = util.EnvOrDefault("FOLIO_SLOT", c.Slot)
	c.Tasks.SaveLatency = util.EnvDurationOrDefault("FOLIO_SAVE_LATENCY", c.Tasks.SaveLatency)
	c.Tasks.NoteQuietPeriod = util.EnvDurationOrDefault("FOLIO_NOTE_QUIET_PERIOD", c.Tasks.NoteQuietPeriod)

	c.Mail.Host = util.EnvOrDefault("SMTP_HOST", c.Mail.Host)
	c.Mail.Port = util.EnvIntOrDefault("SMTP_PORT", c.Mail.Port)
	c.Mail.Username = util.EnvOrDefault("SMTP_USER", c.Mail.Username)
	c.Mail.Password = util.EnvOrDefault("SMTP_PASS", c.Mail.Password)
	c.Mail.Recipient = util.EnvOrDefault("RECIPIENT_EMAIL", c.Mail.Recipient)
	c.Mail.OwnerName = util.EnvOrDefault("FOLIO_OWNER_NAME", c.Mail.OwnerName)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Slot == "" {
		return fmt.Errorf("slot is required")
	}
	if c.Tasks.SaveLatency < 0 || c.Tasks.NoteQuietPeriod < 0 {
		return fmt.Errorf("task timers must not be negative")
	}
	return nil
}

// DBPath is the SQLite file inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "folio.db")
}

// LockPath is the single-writer lock file inside the data directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "folio.lock")
}

// MailEnabled reports whether enough relay settings are present to send.
func (c *Config) MailEnabled() bool {
	return c.Mail.Host != "" && c.Mail.Username != "" && c.Mail.Recipient != ""
}
