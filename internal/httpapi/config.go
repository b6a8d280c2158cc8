package httpapi

import (
	"net/http"

	"github.com/go-chi/cors"
)

const defaultMaxBodyBytes int64 = 1 << 20

// maxBodyBytes caps JSON request bodies. Pull and chat streams are not
// affected: only the request body is limited.
var maxBodyBytes = defaultMaxBodyBytes

// SetMaxBodyBytes sets the JSON body limit. Non-positive values restore 1 MiB.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		n = defaultMaxBodyBytes
	}
	maxBodyBytes = n
}

// corsPolicy is the opt-in cross-origin policy for browsers loading the UI
// from another origin (file://, a dev server).
type corsPolicy struct {
	enabled bool
	origins []string
	methods []string
	headers []string
}

var (
	defaultCORSOrigins = []string{"*"}
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	defaultCORSHeaders = []string{"Content-Type", "Authorization", "X-Log-Level"}
)

var corsOpts corsPolicy

// SetCORSOptions configures cross-origin access. Empty lists fall back to
// any origin, the methods of the API and the headers the UI sends.
// It must be called before NewMux.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsOpts = corsPolicy{
		enabled: enabled,
		origins: withDefault(origins, defaultCORSOrigins),
		methods: withDefault(methods, defaultCORSMethods),
		headers: withDefault(headers, defaultCORSHeaders),
	}
}

func withDefault(v, def []string) []string {
	if len(v) == 0 {
		v = def
	}
	return append([]string(nil), v...)
}

// middleware returns the CORS handler, nil when the policy is disabled.
func (p corsPolicy) middleware() func(http.Handler) http.Handler {
	if !p.enabled {
		return nil
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: p.origins,
		AllowedMethods: p.methods,
		AllowedHeaders: p.headers,
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	})
}
