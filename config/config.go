// Package config handles loading and managing application configuration
// from YAML files, .env files, and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// History controls recording of generated codes to the local database.
type History struct {
	Enabled bool `yaml:"enabled"`
}

// Server holds settings for the HTTP service mode.
type Server struct {
	Port       int `yaml:"port"`
	MaxDataLen int `yaml:"max_data_len"`
}

// Config holds all application configuration values.
type Config struct {
	OutputDir  string  `yaml:"output_dir"`
	DataDir    string  `yaml:"data_dir"`
	ModuleSize int     `yaml:"module_size"`
	Border     int     `yaml:"border"`
	Level      string  `yaml:"level"`
	LogLevel   string  `yaml:"log_level"`
	History    History `yaml:"history"`
	Server     Server  `yaml:"server"`
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return &Config{
		OutputDir:  "qrs",
		DataDir:    filepath.Join(homeDir, ".qrforge"),
		ModuleSize: 10,
		Border:     4,
		Level:      "M",
		LogLevel:   "info",
		History:    History{Enabled: false},
		Server: Server{
			Port:       8590,
			MaxDataLen: 2331, // level M byte capacity
		},
	}
}

// Load reads configuration from the YAML file at path, falling back to
// defaults if the file does not exist. A .env file in the working directory
// is loaded first, then environment variables with the QRF_ prefix override
// any file or default values.
func Load(path string) (*Config, error) {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// File doesn't exist — proceed with defaults.
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies QRF_* environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QRF_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("QRF_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("QRF_MODULE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ModuleSize = n
		}
	}
	if v := os.Getenv("QRF_BORDER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Border = n
		}
	}
	if v := os.Getenv("QRF_LEVEL"); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv("QRF_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("QRF_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("QRF_MAX_DATA_LEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MaxDataLen = n
		}
	}
	if v := os.Getenv("QRF_HISTORY"); v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			cfg.History.Enabled = true
		case "false", "0", "no":
			cfg.History.Enabled = false
		}
	}
}

// EnsureDirs creates the output and data directories if they do not
// already exist.
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", c.OutputDir, err)
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir %s: %w", c.DataDir, err)
	}
	return nil
}

// HistoryDBPath returns the path of the history database under DataDir.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}
