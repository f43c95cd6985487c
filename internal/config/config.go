// Package config loads application configuration from TOML, with defaults
// and an upward search for a project-local config file.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// LocalConfigName is the project-local config file searched for upward from
// the working directory.
const LocalConfigName = ".cutdesk.toml"

// Config holds all application configuration
type Config struct {
	General       GeneralConfig       `toml:"general"`
	Web           WebConfig           `toml:"web"`
	Notifications NotificationsConfig `toml:"notifications"`
	Deadline      DeadlineConfig      `toml:"deadline"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	DatabasePath string `toml:"database_path"`
	SeedFile     string `toml:"seed_file"`
}

// WebConfig holds HTTP server settings
type WebConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// NotificationsConfig holds notification delivery settings
type NotificationsConfig struct {
	SlackWebhook string `toml:"slack_webhook"`
	// QueueSize bounds the async dispatch buffer; overflow is dropped.
	QueueSize int `toml:"queue_size"`
}

// DeadlineConfig holds the overdue-sweep schedule
type DeadlineConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		General: GeneralConfig{
			DatabasePath: filepath.Join(home, ".cutdesk", "cutdesk.db"),
		},
		Web: WebConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Notifications: NotificationsConfig{
			QueueSize: 64,
		},
		Deadline: DeadlineConfig{
			Enabled: true,
			Cron:    "*/30 * * * *",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.General.DatabasePath = ExpandPath(cfg.General.DatabasePath)
	cfg.General.SeedFile = ExpandPath(cfg.General.SeedFile)

	return cfg, nil
}

// LoadWithLocalFallback loads an explicit path when given, otherwise a
// project-local config found by walking upward, otherwise the user-level
// config file.
func LoadWithLocalFallback(path string) (*Config, error) {
	return Load(ResolvePath(path))
}

// ResolvePath returns the config file path LoadWithLocalFallback would read:
// the explicit path when given, otherwise a project-local file found by
// walking upward, otherwise the user-level default. The file may not exist.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	if local := FindLocalConfig(); local != "" {
		return local
	}
	return DefaultConfigPath()
}

// FindLocalConfig walks from the working directory toward the filesystem
// root looking for a project-local config file. Returns "" when none exists.
func FindLocalConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, LocalConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cutdesk", "config.toml")
}
