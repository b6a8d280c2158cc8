// Package httpapi exposes the chat, catalog, pull and inventory operations
// over HTTP with chi.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sashabaranov/go-openai"

	"localchat/internal/catalog"
	"localchat/internal/inventory"
	"localchat/internal/relay"
	"localchat/pkg/types"
)

// ChatService resolves and streams chat completions.
type ChatService interface {
	Resolve(req types.ChatRequest) (relay.Target, error)
	Stream(ctx context.Context, t relay.Target, msgs []types.ChatMessage, w io.Writer, flush func()) error
}

// PullService relays a streaming model pull.
type PullService interface {
	Relay(ctx context.Context, endpoint, model string, w io.Writer, flush func()) (relay.PullOutcome, error)
}

// CatalogService builds the downloadable model catalog.
type CatalogService interface {
	Catalog(ctx context.Context, endpoint string, q catalog.Query) (catalog.Result, error)
}

// TagService lists the tag variants of one model.
type TagService interface {
	Tags(ctx context.Context, endpoint, model string) ([]types.ModelTagVariant, error)
}

// InventoryService manages installed models.
type InventoryService interface {
	List(ctx context.Context, endpoint string) ([]types.LocalModelView, error)
	DeleteMany(ctx context.Context, endpoint string, names []string, reason string) (inventory.DeleteResult, error)
	Manage(ctx context.Context, endpoint, name, action string) (string, error)
}

// OpenAIService lists models of an OpenAI account.
type OpenAIService interface {
	ListModels(ctx context.Context, apiKey string) ([]openai.Model, error)
}

// Prober counts the models listed at a URL.
type Prober interface {
	Probe(ctx context.Context, rawURL string) (int, error)
}

// Services bundles the dependencies of the HTTP API.
type Services struct {
	Chat      ChatService
	Pull      PullService
	Catalog   CatalogService
	Tags      TagService
	Inventory InventoryService
	OpenAI    OpenAIService
	Prober    Prober

	// OllamaEndpoint is used when a request names no endpoint.
	OllamaEndpoint string
	// OpenAIAPIKey is used when a request carries no key.
	OpenAIAPIKey string
	// UIDir, when set, is served as static files under /.
	UIDir string
}

// NewMux builds the router. Package-level options (SetCORSOptions,
// SetMaxBodyBytes, SetLogger) must be applied before calling it.
func NewMux(svc Services) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if mw := corsOpts.middleware(); mw != nil {
		r.Use(mw)
	}
	// Compression for JSON endpoints; event streams are not compressed.
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	r.Use(MetricsMiddleware)
	r.Use(accessLog)

	h := &handlers{svc: svc}
	r.Post("/chat", h.chat)
	r.Route("/models", func(r chi.Router) {
		r.Get("/catalog", h.catalog)
		r.Get("/tags", h.tags)
		r.Get("/local", h.listLocal)
		r.Delete("/local", h.deleteLocal)
		r.Post("/manage", h.manage)
		r.Get("/pull-stream", h.pullProbe)
		r.Post("/pull-stream", h.pullStream)
		r.Get("/openai", h.openAIModels)
	})
	r.Post("/test-connection", h.testConnection)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)
	if svc.UIDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(svc.UIDir)))
	}
	return r
}

type handlers struct {
	svc Services
}

// decodeJSON enforces the JSON content type and body limit and decodes into
// v. It writes the error response itself and reports whether to continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Oversized bodies also land here; the size is not leaked.
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// setEventStreamHeaders prepares w for Server-Sent Events and returns its
// flush func, nil when w cannot flush.
func setEventStreamHeaders(w http.ResponseWriter) func() {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	if f, ok := w.(http.Flusher); ok {
		return f.Flush
	}
	return nil
}
