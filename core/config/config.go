// Package config loads the assistant configuration from yaml with
// environment-variable overrides for credentials.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Hostaway HostawayConfig `yaml:"hostaway"`
	Places   PlacesConfig   `yaml:"places"`
	Learning LearningConfig `yaml:"learning"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ModelConfig struct {
	APIKey      string  `yaml:"api_key"`
	Name        string  `yaml:"name"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type HostawayConfig struct {
	BaseURL      string `yaml:"base_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	TimeoutSecs  int    `yaml:"timeout_secs"`
}

type PlacesConfig struct {
	APIKey    string `yaml:"api_key"`
	RadiusM   int    `yaml:"radius_m"`
	CacheSize int    `yaml:"cache_size"`
}

type LearningConfig struct {
	DBPath string `yaml:"db_path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Name:        "claude-haiku-4-5-20251001",
			MaxTokens:   700,
			Temperature: 0.3,
		},
		Hostaway: HostawayConfig{
			BaseURL:     "https://api.hostaway.com/v1",
			TimeoutSecs: 15,
		},
		Places: PlacesConfig{
			RadiusM:   8000,
			CacheSize: 256,
		},
		Learning: LearningConfig{
			DBPath: "learning.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads yaml from path (when non-empty) over the defaults, then
// applies environment overrides. A missing file is not an error; a
// malformed one is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overlay(&c.Model.APIKey, "ANTHROPIC_API_KEY")
	overlay(&c.Model.Name, "AUTOREPLY_MODEL")
	overlay(&c.Hostaway.ClientID, "HOSTAWAY_CLIENT_ID")
	overlay(&c.Hostaway.ClientSecret, "HOSTAWAY_CLIENT_SECRET")
	overlay(&c.Hostaway.BaseURL, "HOSTAWAY_BASE_URL")
	overlay(&c.Places.APIKey, "GOOGLE_MAPS_API_KEY")
	overlay(&c.Learning.DBPath, "LEARNING_DB_PATH")
	overlay(&c.Logging.Level, "AUTOREPLY_LOG_LEVEL")
}

func overlay(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
