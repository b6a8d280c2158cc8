package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"localchat/internal/catalog"
	"localchat/internal/httpapi"
	"localchat/internal/inventory"
	"localchat/internal/relay"
	"localchat/internal/upstream"
	"localchat/pkg/types"
)

// fakeOllama serves the native API, the OpenAI-compatible chat endpoint, a
// catalog API and library pages from one httptest server.
type fakeOllama struct {
	mu          sync.Mutex
	installed   map[string]time.Time
	catalogJSON string // empty means the catalog API answers 503
	libraryUp   bool
	pullLines   []string
	chatChunks  []string
	lastChatKey string
}

func newFakeOllama() *fakeOllama {
	return &fakeOllama{installed: map[string]time.Time{}}
}

func (f *fakeOllama) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var models []types.LocalModelRecord
		for name, mod := range f.installed {
			models = append(models, types.LocalModelRecord{Name: name, Model: name, Size: 2048, ModifiedAt: mod})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"models": models})
	})
	mux.HandleFunc("/api/delete", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.installed[req.Model]; !ok {
			http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
			return
		}
		delete(f.installed, req.Model)
	})
	mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		fl, _ := w.(http.Flusher)
		for _, line := range f.pullLines {
			_, _ = io.WriteString(w, line+"\n")
			if fl != nil {
				fl.Flush()
			}
		}
		f.mu.Lock()
		f.installed[req.Model] = time.Date(2024, 11, 5, 14, 3, 27, 0, time.UTC)
		f.mu.Unlock()
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastChatKey = r.Header.Get("Authorization")
		f.mu.Unlock()
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range f.chatChunks {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"m\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", c)
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	})
	mux.HandleFunc("/catalog/models", func(w http.ResponseWriter, r *http.Request) {
		if f.catalogJSON == "" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, f.catalogJSON)
	})
	mux.HandleFunc("/site/", func(w http.ResponseWriter, r *http.Request) {
		if !f.libraryUp {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		switch strings.TrimPrefix(r.URL.Path, "/site") {
		case "/library":
			_, _ = io.WriteString(w, `<html><body><a href="/library/gemma3">gemma3</a></body></html>`)
		case "/library/gemma3/tags":
			_, _ = io.WriteString(w, `<html><body><a href="/library/gemma3:1b">gemma3:1b</a> 815MB <a href="/library/gemma3:4b">gemma3:4b</a> 3.3GB</body></html>`)
		default:
			http.NotFound(w, r)
		}
	})
	return mux
}

// newServer wires the real service stack against fake.
func newServer(t *testing.T, fake *fakeOllama) (*httptest.Server, string) {
	t.Helper()
	upstreamSrv := httptest.NewServer(fake.handler())
	t.Cleanup(upstreamSrv.Close)

	log := zerolog.Nop()
	httpClient := upstreamSrv.Client()
	ollama := upstream.NewOllamaClient(httpClient)
	openAI := upstream.NewOpenAIClient(upstreamSrv.URL+"/v1", httpClient)
	library := upstreamSrv.URL + "/site"
	mux := httpapi.NewMux(httpapi.Services{
		Chat:           relay.NewChatRelay(relay.ChatConfig{OllamaEndpoint: upstreamSrv.URL}, openAI, log),
		Pull:           relay.NewPullRelay(ollama, log),
		Catalog:        catalog.NewAggregator(ollama, log, catalog.DefaultSources(upstreamSrv.URL+"/catalog", library, httpClient)...),
		Tags:           catalog.NewTagLister(library, httpClient, ollama, log),
		Inventory:      inventory.NewManager(ollama, log, time.UTC),
		OpenAI:         openAI,
		Prober:         ollama,
		OllamaEndpoint: upstreamSrv.URL,
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, upstreamSrv.URL
}

func httpJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, b
}

func dataFrames(body []byte) []string {
	var out []string
	for _, part := range strings.Split(string(body), "\n\n") {
		if p, ok := strings.CutPrefix(part, "data: "); ok {
			out = append(out, p)
		}
	}
	return out
}
