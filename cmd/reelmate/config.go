package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// cliConfig is read from ~/.config/reelmate/config.toml or --config.
type cliConfig struct {
	Server string `toml:"server"`
	UserID string `toml:"user_id"`
	// TimeoutRaw is a Go duration string such as "45s".
	TimeoutRaw string `toml:"timeout"`

	Timeout time.Duration `toml:"-"`
}

func defaultCLIConfig() cliConfig {
	return cliConfig{Server: "http://localhost:8080", Timeout: 30 * time.Second}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "reelmate", "config.toml")
}

// loadCLIConfig reads path over the defaults. A missing default file is not
// an error; a missing explicit file is.
func loadCLIConfig(path string) (cliConfig, error) {
	cfg := defaultCLIConfig()
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = defaultConfigPath()
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Server = strings.TrimRight(strings.TrimSpace(cfg.Server), "/")
	if cfg.Server == "" {
		cfg.Server = defaultCLIConfig().Server
	}
	if raw := strings.TrimSpace(cfg.TimeoutRaw); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("parse config %s: invalid timeout %q", path, raw)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}
