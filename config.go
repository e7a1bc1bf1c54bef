package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Site        string              `toml:"site"`
	Email       string              `toml:"email"`
	APIKey      string              `toml:"api_key"`
	APIKeyFile  string              `toml:"api_key_file"`
	MaxMessages int                 `toml:"max_messages"`
	Logging     *bool               `toml:"logging"` // nil = default (true)
	LogDir      string              `toml:"log_dir"`
	Keys        map[string][]string `toml:"keys"`
}

// LoggingEnabled returns whether transcript logging is enabled.
func (c Config) LoggingEnabled() bool {
	if c.Logging == nil {
		return true // enabled by default
	}
	return *c.Logging
}

func defaultConfig() Config {
	return Config{
		MaxMessages: 500,
	}
}

func configPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if p := os.Getenv("ZTERM_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "zterm", "config.toml")
}

// defaultLogDir places transcripts next to the config file.
func defaultLogDir(flagPath string) string {
	return filepath.Join(filepath.Dir(configPath(flagPath)), "logs")
}

func LoadConfig(flagPath string) (Config, error) {
	cfg := defaultConfig()

	path := configPath(flagPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 500
	}
	cfg.Site = strings.TrimRight(cfg.Site, "/")
	if cfg.LogDir == "" {
		cfg.LogDir = defaultLogDir(flagPath)
	}

	if cfg.APIKey == "" && cfg.APIKeyFile != "" {
		key, err := os.ReadFile(expandHome(cfg.APIKeyFile))
		if err != nil {
			return cfg, fmt.Errorf("read api_key_file: %w", err)
		}
		cfg.APIKey = strings.TrimSpace(string(key))
	}

	return cfg, nil
}

// Validate reports missing credentials.
func (c Config) Validate() error {
	var missing []string
	if c.Site == "" {
		missing = append(missing, "site")
	}
	if c.Email == "" {
		missing = append(missing, "email")
	}
	if c.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if len(missing) > 0 {
		return errors.New("config: missing " + strings.Join(missing, ", "))
	}
	return nil
}

// expandHome expands a leading "~/" to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
