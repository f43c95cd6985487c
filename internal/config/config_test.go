package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Default()

	if cfg.Web.Port != 8080 {
		t.Errorf("Web.Port = %d, want 8080", cfg.Web.Port)
	}
	if cfg.Web.Host != "127.0.0.1" {
		t.Errorf("Web.Host = %q, want 127.0.0.1", cfg.Web.Host)
	}
	if cfg.Notifications.QueueSize != 64 {
		t.Errorf("QueueSize = %d, want 64", cfg.Notifications.QueueSize)
	}
	if !cfg.Deadline.Enabled {
		t.Error("deadline sweep should be enabled by default")
	}
	if cfg.Deadline.Cron != "*/30 * * * *" {
		t.Errorf("Deadline.Cron = %q", cfg.Deadline.Cron)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	content := `
[general]
database_path = "/test/cutdesk.db"

[web]
port = 9000

[notifications]
slack_webhook = "https://hooks.slack.com/services/T/B/X"

[deadline]
cron = "0 * * * *"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.General.DatabasePath != "/test/cutdesk.db" {
		t.Errorf("DatabasePath = %q, want /test/cutdesk.db", cfg.General.DatabasePath)
	}
	if cfg.Web.Port != 9000 {
		t.Errorf("Web.Port = %d, want 9000", cfg.Web.Port)
	}
	if cfg.Notifications.SlackWebhook == "" {
		t.Error("SlackWebhook should be set")
	}
	if cfg.Deadline.Cron != "0 * * * *" {
		t.Errorf("Deadline.Cron = %q, want hourly", cfg.Deadline.Cron)
	}
	// Untouched sections keep their defaults.
	if cfg.Web.Host != "127.0.0.1" {
		t.Errorf("Web.Host = %q, want default", cfg.Web.Host)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("Web.Port = %d, want default 8080", cfg.Web.Port)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input string
		want  string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
	}

	for _, tt := range tests {
		got := ExpandPath(tt.input)
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFindLocalConfig(t *testing.T) {
	root := t.TempDir()
	subdir := filepath.Join(root, "sub", "dir")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}

	localConfig := filepath.Join(root, LocalConfigName)
	if err := os.WriteFile(localConfig, []byte("[web]\nport = 7000"), 0644); err != nil {
		t.Fatal(err)
	}

	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	if err := os.Chdir(subdir); err != nil {
		t.Fatal(err)
	}

	// Should find the config in the ancestor directory.
	found := FindLocalConfig()
	resolved, _ := filepath.EvalSymlinks(found)
	want, _ := filepath.EvalSymlinks(localConfig)
	if resolved != want {
		t.Errorf("FindLocalConfig() = %q, want %q", found, localConfig)
	}
}

func TestFindLocalConfig_NotFound(t *testing.T) {
	root := t.TempDir()

	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	if err := os.Chdir(root); err != nil {
		t.Fatal(err)
	}

	if found := FindLocalConfig(); found != "" {
		t.Errorf("FindLocalConfig() = %q, want empty string", found)
	}
}

func TestLoadWithLocalFallback_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	explicitPath := filepath.Join(dir, "explicit.toml")

	content := `[general]
database_path = "/explicit/cutdesk.db"
`
	if err := os.WriteFile(explicitPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithLocalFallback(explicitPath)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.General.DatabasePath != "/explicit/cutdesk.db" {
		t.Errorf("DatabasePath = %q, want /explicit/cutdesk.db", cfg.General.DatabasePath)
	}
}

func TestLoadWithLocalFallback_LocalConfig(t *testing.T) {
	root := t.TempDir()
	localConfig := filepath.Join(root, LocalConfigName)

	content := `[general]
database_path = "/from-local/cutdesk.db"
`
	if err := os.WriteFile(localConfig, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	if err := os.Chdir(root); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithLocalFallback("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.General.DatabasePath != "/from-local/cutdesk.db" {
		t.Errorf("DatabasePath = %q, want /from-local/cutdesk.db", cfg.General.DatabasePath)
	}
}

func TestResolvePath_ExplicitWins(t *testing.T) {
	if got := ResolvePath("/tmp/custom.toml"); got != "/tmp/custom.toml" {
		t.Errorf("ResolvePath = %q, want the explicit path", got)
	}
}
