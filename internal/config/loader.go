package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are filled by WithDefaults.
type Config struct {
	Addr                   string   `json:"addr" yaml:"addr" toml:"addr"`
	OllamaEndpoint         string   `json:"ollama_endpoint" yaml:"ollama_endpoint" toml:"ollama_endpoint"`
	OpenAIAPIKey           string   `json:"openai_api_key" yaml:"openai_api_key" toml:"openai_api_key"`
	OpenAIBaseURL          string   `json:"openai_base_url" yaml:"openai_base_url" toml:"openai_base_url"`
	CatalogAPIURL          string   `json:"catalog_api_url" yaml:"catalog_api_url" toml:"catalog_api_url"`
	LibraryURL             string   `json:"library_url" yaml:"library_url" toml:"library_url"`
	SystemPrompt           string   `json:"system_prompt" yaml:"system_prompt" toml:"system_prompt"`
	DefaultModel           string   `json:"default_model" yaml:"default_model" toml:"default_model"`
	MaxBodyBytes           int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	ChatTimeout            Duration `json:"chat_timeout" yaml:"chat_timeout" toml:"chat_timeout"`
	UpstreamConnectTimeout Duration `json:"upstream_connect_timeout" yaml:"upstream_connect_timeout" toml:"upstream_connect_timeout"`
	CORSEnabled            bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins            []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	CORSMethods            []string `json:"cors_methods" yaml:"cors_methods" toml:"cors_methods"`
	CORSHeaders            []string `json:"cors_headers" yaml:"cors_headers" toml:"cors_headers"`
	LogLevel               string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	UIDir                  string   `json:"ui_dir" yaml:"ui_dir" toml:"ui_dir"`
}

// Defaults.
const (
	DefaultAddr           = ":8080"
	DefaultOllamaEndpoint = "http://localhost:11434"
	DefaultMaxBodyBytes   = 1 << 20
	DefaultConnectTimeout = 10 * time.Second
	DefaultLogLevel       = "info"
)

// Duration is a time.Duration written as "30s" in config files.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) { return []byte(time.Duration(d).String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "0" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml. A leading ~ is expanded.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	path, err := expandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// WithDefaults returns cfg with every unspecified field filled.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.OllamaEndpoint == "" {
		c.OllamaEndpoint = DefaultOllamaEndpoint
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.UpstreamConnectTimeout <= 0 {
		c.UpstreamConnectTimeout = Duration(DefaultConnectTimeout)
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if len(c.CORSMethods) == 0 {
		c.CORSMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(c.CORSHeaders) == 0 {
		c.CORSHeaders = []string{"Content-Type", "Authorization", "X-Log-Level"}
	}
	return c
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
