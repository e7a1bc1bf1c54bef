package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.MaxMessages != 500 {
		t.Errorf("MaxMessages = %d, want 500", cfg.MaxMessages)
	}
	if !cfg.LoggingEnabled() {
		t.Error("logging should be enabled by default")
	}
}

func TestConfigPath(t *testing.T) {
	t.Run("flag takes priority", func(t *testing.T) {
		got := configPath("/my/flag/path.toml")
		if got != "/my/flag/path.toml" {
			t.Errorf("configPath with flag = %q, want %q", got, "/my/flag/path.toml")
		}
	})

	t.Run("env var when no flag", func(t *testing.T) {
		t.Setenv("ZTERM_CONFIG", "/env/path.toml")
		got := configPath("")
		if got != "/env/path.toml" {
			t.Errorf("configPath with env = %q, want %q", got, "/env/path.toml")
		}
	})

	t.Run("default when no flag or env", func(t *testing.T) {
		t.Setenv("ZTERM_CONFIG", "")
		got := configPath("")
		home, err := os.UserHomeDir()
		if err != nil {
			t.Fatalf("os.UserHomeDir() failed: %v", err)
		}
		want := filepath.Join(home, ".config", "zterm", "config.toml")
		if got != want {
			t.Errorf("configPath default = %q, want %q", got, want)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		dir := t.TempDir()
		flagPath := filepath.Join(dir, "nonexistent.toml")
		cfg, err := LoadConfig(flagPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MaxMessages != 500 {
			t.Errorf("MaxMessages = %d, want 500", cfg.MaxMessages)
		}
		if err := cfg.Validate(); err == nil {
			t.Error("expected missing credentials to fail validation")
		}
	})

	t.Run("valid TOML parses", func(t *testing.T) {
		dir := t.TempDir()
		cfgFile := filepath.Join(dir, "config.toml")
		content := `
site = "https://chat.example.com/"
email = "me@example.com"
api_key = "secret"
max_messages = 100
logging = false

[keys]
SEND_MESSAGE = ["ctrl+s"]
`
		if err := os.WriteFile(cfgFile, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(cfgFile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Site != "https://chat.example.com" {
			t.Errorf("Site = %q, want trailing slash trimmed", cfg.Site)
		}
		if cfg.MaxMessages != 100 {
			t.Errorf("MaxMessages = %d, want 100", cfg.MaxMessages)
		}
		if cfg.LoggingEnabled() {
			t.Error("logging = false should disable logging")
		}
		if got := cfg.Keys["SEND_MESSAGE"]; len(got) != 1 || got[0] != "ctrl+s" {
			t.Errorf("Keys[SEND_MESSAGE] = %v, want [ctrl+s]", got)
		}
		if cfg.LogDir != filepath.Join(dir, "logs") {
			t.Errorf("LogDir = %q, want %q", cfg.LogDir, filepath.Join(dir, "logs"))
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	})

	t.Run("api key file", func(t *testing.T) {
		dir := t.TempDir()
		keyFile := filepath.Join(dir, "key")
		if err := os.WriteFile(keyFile, []byte("fromfile\n"), 0600); err != nil {
			t.Fatal(err)
		}
		cfgFile := filepath.Join(dir, "config.toml")
		content := "site = \"https://x\"\nemail = \"a@b\"\napi_key_file = \"" + keyFile + "\"\n"
		if err := os.WriteFile(cfgFile, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(cfgFile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.APIKey != "fromfile" {
			t.Errorf("APIKey = %q, want %q", cfg.APIKey, "fromfile")
		}
	})

	t.Run("zero max_messages gets default", func(t *testing.T) {
		dir := t.TempDir()
		cfgFile := filepath.Join(dir, "config.toml")
		if err := os.WriteFile(cfgFile, []byte(`max_messages = 0`), 0644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(cfgFile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MaxMessages != 500 {
			t.Errorf("MaxMessages = %d, want 500 (default)", cfg.MaxMessages)
		}
	})

	t.Run("invalid TOML errors", func(t *testing.T) {
		dir := t.TempDir()
		cfgFile := filepath.Join(dir, "config.toml")
		if err := os.WriteFile(cfgFile, []byte(`site = `), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(cfgFile); err == nil {
			t.Error("expected parse error")
		}
	})
}
