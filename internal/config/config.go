// Package config holds the explicit configuration value passed into each
// component. There is no ambient process state beyond the environment reads
// done at load time.
package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"suada-mcp/internal/suada"
)

// Config is the full configuration surface for both the direct client and
// the tool server.
type Config struct {
	APIKey                 string `yaml:"api_key"`
	BaseURL                string `yaml:"base_url"`
	ExternalUserIdentifier string `yaml:"external_user_identifier"`

	ServerName    string `yaml:"server_name"`
	ServerVersion string `yaml:"server_version"`

	HTTPAddr  string `yaml:"http_addr"`
	HTTPToken string `yaml:"http_token"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		BaseURL:       suada.DefaultBaseURL,
		ServerName:    "suada",
		ServerVersion: "1.0.0",
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load builds a Config: defaults, overlaid by the YAML file at path (if
// path is non-empty), overlaid by environment variables. A missing file at
// an explicitly given path is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config yaml: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.APIKey, "SUADA_API_KEY")
	setFromEnv(&c.BaseURL, "SUADA_BASE_URL")
	setFromEnv(&c.ExternalUserIdentifier, "SUADA_EXTERNAL_USER_ID")
	setFromEnv(&c.HTTPToken, "SUADA_HTTP_TOKEN")
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
