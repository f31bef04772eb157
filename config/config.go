// Package config loads the user's atimewalk settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/riadafridishibly/atimewalk/scanner"
	"github.com/sirupsen/logrus"
)

const (
	appName        = "atimewalk"
	configFileName = "config.json"
	historyDBName  = "history.db"
)

type Config struct {
	Strategy             string `json:"strategy"`
	HistoryDB            string `json:"history_db"`
	LogLevel             string `json:"log_level"`
	Theme                string `json:"theme"`
	ReplaceHomeWithTilde bool   `json:"replace_home_with_tilde"`
}

// fileConfig mirrors Config with pointers so absent keys keep defaults.
type fileConfig struct {
	Strategy             *string `json:"strategy"`
	HistoryDB            *string `json:"history_db"`
	LogLevel             *string `json:"log_level"`
	Theme                *string `json:"theme"`
	ReplaceHomeWithTilde *bool   `json:"replace_home_with_tilde"`
}

func Default() Config {
	return Config{
		Strategy:             scanner.StrategyScandirFd.String(),
		HistoryDB:            filepath.Join(xdg.DataHome, appName, historyDBName),
		LogLevel:             logrus.WarnLevel.String(),
		Theme:                "nord",
		ReplaceHomeWithTilde: true,
	}
}

// Path is where Load looks by default.
func Path() string {
	return filepath.Join(xdg.ConfigHome, appName, configFileName)
}

// Load reads the config at path over the defaults. A missing file is not an
// error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	var stored fileConfig
	if err := json.Unmarshal(data, &stored); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg = merge(cfg, stored)
	return cfg, cfg.Validate()
}

func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (c Config) Validate() error {
	if _, err := scanner.ParseStrategy(c.Strategy); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// ScanStrategy returns the configured strategy. Call Validate first.
func (c Config) ScanStrategy() scanner.Strategy {
	s, _ := scanner.ParseStrategy(c.Strategy)
	return s
}

func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.WarnLevel
	}
	return lvl
}

func merge(base Config, stored fileConfig) Config {
	merged := base
	if stored.Strategy != nil {
		merged.Strategy = *stored.Strategy
	}
	if stored.HistoryDB != nil {
		merged.HistoryDB = *stored.HistoryDB
	}
	if stored.LogLevel != nil {
		merged.LogLevel = *stored.LogLevel
	}
	if stored.Theme != nil {
		merged.Theme = *stored.Theme
	}
	if stored.ReplaceHomeWithTilde != nil {
		merged.ReplaceHomeWithTilde = *stored.ReplaceHomeWithTilde
	}
	return merged
}
