package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyEnv overrides cfg with environment variables read through getenv
// (os.Getenv in production). Unset or empty variables leave fields alone.
// Several keys also honour the conventional unprefixed variable, checked
// after the LOCALCHAT_ one.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	list := func(dst *[]string, key string) {
		if v := getenv(key); strings.TrimSpace(v) != "" {
			*dst = SplitCSV(v)
		}
	}

	str(&cfg.Addr, "LOCALCHAT_ADDR")
	str(&cfg.OllamaEndpoint, "LOCALCHAT_OLLAMA_ENDPOINT", "OLLAMA_ENDPOINT")
	str(&cfg.OpenAIAPIKey, "LOCALCHAT_OPENAI_API_KEY", "OPENAI_API_KEY")
	str(&cfg.OpenAIBaseURL, "LOCALCHAT_OPENAI_BASE_URL")
	str(&cfg.CatalogAPIURL, "LOCALCHAT_CATALOG_API_URL")
	str(&cfg.LibraryURL, "LOCALCHAT_LIBRARY_URL")
	str(&cfg.SystemPrompt, "LOCALCHAT_SYSTEM_PROMPT")
	str(&cfg.DefaultModel, "LOCALCHAT_DEFAULT_MODEL")
	str(&cfg.LogLevel, "LOCALCHAT_LOG_LEVEL")
	str(&cfg.UIDir, "LOCALCHAT_UI_DIR")
	list(&cfg.CORSOrigins, "LOCALCHAT_CORS_ORIGINS")
	list(&cfg.CORSMethods, "LOCALCHAT_CORS_METHODS")
	list(&cfg.CORSHeaders, "LOCALCHAT_CORS_HEADERS")

	if v := strings.TrimSpace(getenv("LOCALCHAT_MAX_BODY_BYTES")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("LOCALCHAT_MAX_BODY_BYTES: %w", err)
		}
		cfg.MaxBodyBytes = n
	}
	for key, dst := range map[string]*Duration{
		"LOCALCHAT_CHAT_TIMEOUT":             &cfg.ChatTimeout,
		"LOCALCHAT_UPSTREAM_CONNECT_TIMEOUT": &cfg.UpstreamConnectTimeout,
	} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		}
	}
	if v := strings.TrimSpace(getenv("LOCALCHAT_CORS_ENABLED")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOCALCHAT_CORS_ENABLED: %w", err)
		}
		cfg.CORSEnabled = b
	}
	return nil
}

// SplitCSV splits a comma-separated list, trimming blanks and dropping
// empty items.
func SplitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
