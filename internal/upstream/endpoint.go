package upstream

import "strings"

// DefaultOllamaEndpoint is used when a request carries no endpoint.
const DefaultOllamaEndpoint = "http://localhost:11434"

// OllamaBase returns the native API root for endpoint: surrounding space and
// trailing slashes are trimmed and a trailing /v1 is removed. An empty
// endpoint yields def.
func OllamaBase(endpoint, def string) string {
	e := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if e == "" {
		e = strings.TrimRight(def, "/")
	}
	e = strings.TrimSuffix(e, "/v1")
	if e == "" {
		return DefaultOllamaEndpoint
	}
	return e
}

// OpenAIBase returns the OpenAI-compatible root (ending in /v1) for an
// Ollama endpoint given with or without the /v1 suffix.
func OpenAIBase(endpoint, def string) string {
	return OllamaBase(endpoint, def) + "/v1"
}
