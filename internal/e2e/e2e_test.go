package e2e

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"localchat/internal/catalog"
	"localchat/pkg/types"
)

// TestE2E_ChatThroughOllamaCompat streams a conversation through the
// OpenAI-compatible endpoint of the fake server and checks frame order.
func TestE2E_ChatThroughOllamaCompat(t *testing.T) {
	fake := newFakeOllama()
	fake.chatChunks = []string{"Hel", "lo", "!"}
	srv, _ := newServer(t, fake)

	resp, body := httpJSON(t, http.MethodPost, srv.URL+"/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Fatalf("status=%d ct=%s body=%s", resp.StatusCode, resp.Header.Get("Content-Type"), body)
	}
	frames := dataFrames(body)
	if len(frames) != 4 || frames[3] != "[DONE]" {
		t.Fatalf("frames=%q", frames)
	}
	var text strings.Builder
	for _, f := range frames[:3] {
		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(f), &chunk); err != nil {
			t.Fatalf("chunk %q: %v", f, err)
		}
		text.WriteString(chunk.Choices[0].Delta.Content)
	}
	if text.String() != "Hello!" {
		t.Fatalf("text=%q", text.String())
	}
	if fake.lastChatKey != "Bearer ollama" {
		t.Fatalf("authorization=%q", fake.lastChatKey)
	}
}

// TestE2E_PullThenListAndDelete pulls a model over SSE, finds it in the
// inventory and deletes it together with an unknown model.
func TestE2E_PullThenListAndDelete(t *testing.T) {
	fake := newFakeOllama()
	fake.pullLines = []string{
		`{"status":"pulling manifest"}`,
		`{"status":"pulling abc","digest":"sha256:abc","total":100,"completed":50}`,
		`{"status":"success"}`,
	}
	srv, _ := newServer(t, fake)

	resp, body := httpJSON(t, http.MethodPost, srv.URL+"/models/pull-stream", `{"modelName":"gemma3:1b"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pull status=%d", resp.StatusCode)
	}
	frames := dataFrames(body)
	if len(frames) != 3 || !strings.Contains(frames[2], "Download completed") {
		t.Fatalf("pull frames=%q", frames)
	}

	resp, body = httpJSON(t, http.MethodGet, srv.URL+"/models/local", "")
	var local types.LocalModelsResponse
	if err := json.Unmarshal(body, &local); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.StatusCode != http.StatusOK || local.Count != 1 || local.Models[0].Name != "gemma3:1b" {
		t.Fatalf("local=%+v", local)
	}
	if local.Models[0].SizeFormatted != "2 KB" || local.Models[0].ModifiedFormatted != "2024/11/5 14:03:27" {
		t.Fatalf("formatted=%+v", local.Models[0])
	}

	resp, body = httpJSON(t, http.MethodDelete, srv.URL+"/models/local", `{"modelNames":["gemma3:1b","ghost"]}`)
	var del types.DeleteResponse
	if err := json.Unmarshal(body, &del); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.StatusCode != http.StatusOK || len(del.Deleted) != 1 || len(del.Errors) != 1 || del.Total != 2 {
		t.Fatalf("delete=%d %+v", resp.StatusCode, del)
	}
	if !strings.HasPrefix(del.Errors[0], "ghost: Not Found") {
		t.Fatalf("error entry=%q", del.Errors[0])
	}
}

// TestE2E_CatalogFallsBackToStaticList fails every remote source and expects
// the built-in list with installed flags applied.
func TestE2E_CatalogFallsBackToStaticList(t *testing.T) {
	fake := newFakeOllama()
	fake.installed["llama3.2:latest"] = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	srv, _ := newServer(t, fake)

	resp, body := httpJSON(t, http.MethodGet, srv.URL+"/models/catalog?sort_by=name&order=asc", "")
	var cat types.CatalogResponse
	if err := json.Unmarshal(body, &cat); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.StatusCode != http.StatusOK || cat.Source != catalog.SourceFallback || len(cat.Models) != 24 {
		t.Fatalf("status=%d source=%s models=%d", resp.StatusCode, cat.Source, len(cat.Models))
	}
	for i := 1; i < len(cat.Models); i++ {
		if cat.Models[i-1].Name > cat.Models[i].Name {
			t.Fatalf("not sorted by name: %s > %s", cat.Models[i-1].Name, cat.Models[i].Name)
		}
	}
	var llama *types.ModelDescriptor
	for i := range cat.Models {
		if cat.Models[i].Name == "llama3.2" {
			llama = &cat.Models[i]
		}
	}
	if llama == nil || !llama.Installed || llama.Modified == nil {
		t.Fatalf("llama3.2 not marked installed: %+v", llama)
	}
	if len(cat.LocalModels) != 1 {
		t.Fatalf("localModels=%d", len(cat.LocalModels))
	}
}

// TestE2E_CatalogFromAPI keeps the API's order and skips local sorting.
func TestE2E_CatalogFromAPI(t *testing.T) {
	fake := newFakeOllama()
	fake.catalogJSON = `{"models":[{"model_name":"zeta","description":"z"},{"model_name":"alpha","pulls":"2M"}]}`
	srv, _ := newServer(t, fake)

	_, body := httpJSON(t, http.MethodGet, srv.URL+"/models/catalog?sort_by=name&order=asc", "")
	var cat types.CatalogResponse
	if err := json.Unmarshal(body, &cat); err != nil {
		t.Fatalf("json: %v", err)
	}
	if cat.Source != catalog.SourceThirdParty || len(cat.Models) != 2 || cat.Models[0].Name != "zeta" {
		t.Fatalf("catalog=%+v", cat)
	}
	if cat.Models[1].Pulls != 2000000 {
		t.Fatalf("pulls=%d", cat.Models[1].Pulls)
	}
}

// TestE2E_LibraryScrapeAndTags uses the library pages when the API is down.
func TestE2E_LibraryScrapeAndTags(t *testing.T) {
	fake := newFakeOllama()
	fake.libraryUp = true
	fake.installed["gemma3:4b"] = time.Now()
	srv, _ := newServer(t, fake)

	_, body := httpJSON(t, http.MethodGet, srv.URL+"/models/catalog", "")
	var cat types.CatalogResponse
	if err := json.Unmarshal(body, &cat); err != nil {
		t.Fatalf("json: %v", err)
	}
	if cat.Source != catalog.SourceLibrary || len(cat.Models) != 1 || !cat.Models[0].Installed {
		t.Fatalf("catalog=%+v", cat)
	}

	_, body = httpJSON(t, http.MethodGet, srv.URL+"/models/tags?model=gemma3", "")
	var tags types.TagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(tags.Tags) != 2 || tags.Tags[0].Size != "815MB" || tags.Tags[1].Size != "3.3GB" {
		t.Fatalf("tags=%+v", tags.Tags)
	}
	if tags.Tags[0].Installed || !tags.Tags[1].Installed || tags.Tags[1].LocalInfo == nil {
		t.Fatalf("installed flags=%+v", tags.Tags)
	}
}

// TestE2E_TestConnection probes the fake inventory endpoint.
func TestE2E_TestConnection(t *testing.T) {
	fake := newFakeOllama()
	fake.installed["a:1b"] = time.Now()
	fake.installed["b:2b"] = time.Now()
	srv, upstreamURL := newServer(t, fake)

	_, body := httpJSON(t, http.MethodPost, srv.URL+"/test-connection", `{"endpoint":"`+upstreamURL+`/api/tags"}`)
	var msg types.MessageResponse
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !msg.Success || msg.Message != "Connection succeeded - 2 models available" {
		t.Fatalf("msg=%+v", msg)
	}
}

// TestE2E_CatalogUnreachableInventory fails the catalog when the named
// inventory endpoint cannot be reached at all.
func TestE2E_CatalogUnreachableInventory(t *testing.T) {
	srv, _ := newServer(t, newFakeOllama())
	resp, body := httpJSON(t, http.MethodGet, srv.URL+"/models/catalog?endpoint=http://127.0.0.1:1", "")
	if resp.StatusCode != http.StatusInternalServerError || !strings.Contains(string(body), `"success":false`) {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
}
