package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localchat/pkg/types"
)

func TestThirdPartySource_DecodesEntriesIndividually(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "Local-LLM-Chat/1.0", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"models":[
			{"model_name":"llama3.2","description":"Meta","size":"2.0GB","labels":["chat"],"pulls":"1.5M","last_updated":"2024-10-01T00:00:00Z"},
			{"slug":"tiny","sizeBytes":1536,"model_type":"community","pulls":42},
			{"description":"no name"},
			"garbage",
			{"name":"numsize","size":1073741824}
		]}`)
	}))
	defer srv.Close()

	src := NewThirdPartySource(srv.URL, srv.Client())
	models, err := src.Fetch(context.Background(), Query{Search: "llama", SortBy: SortRecency, Order: OrderAsc})
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "limit=50")
	assert.Contains(t, gotQuery, "search=llama")
	assert.Contains(t, gotQuery, "sort_by=last_updated")
	assert.Contains(t, gotQuery, "order=asc")

	require.Len(t, models, 3)
	assert.Equal(t, "llama3.2", models[0].Name)
	assert.Equal(t, "2.0GB", models[0].Size)
	assert.Equal(t, []string{"chat"}, models[0].Tags)
	assert.Equal(t, int64(1500000), models[0].Pulls)
	assert.True(t, models[0].Official)
	require.NotNil(t, models[0].UpdatedAt)

	assert.Equal(t, "tiny", models[1].Name)
	assert.Equal(t, "tiny model", models[1].Description)
	assert.Equal(t, "1.5 KB", models[1].Size)
	assert.Equal(t, []string{"official"}, models[1].Tags)
	assert.True(t, models[1].Official, "model_type does not demote an entry")
	assert.Equal(t, int64(42), models[1].Pulls)

	assert.Equal(t, "1 GB", models[2].Size)
}

func TestThirdPartySource_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()
	_, err := NewThirdPartySource(srv.URL, srv.Client()).Fetch(context.Background(), Query{})
	require.Error(t, err)
}

const indexHTML = `<html><body>
<a href="/library/llama3.2">llama3.2</a>
<a href="/library/llama3.2">again</a>
<a href="/library/gemma2">gemma2</a>
<a href="/library/gemma2/tags">tags</a>
<a href="/library/q">q</a>
<a href="/blog/post">blog</a>
<a href="/library/broken">broken</a>
</body></html>`

func TestLibraryIndexSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/library", r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		fmt.Fprint(w, indexHTML)
	}))
	defer srv.Close()

	models, err := NewLibraryIndexSource(srv.URL, srv.Client()).Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.2", "gemma2", "q", "broken"}, names(models))
	assert.Equal(t, "Official gemma2 model from Ollama Library", models[1].Description)
	assert.Equal(t, "Unknown", models[1].Size)
	assert.Equal(t, []string{"official", "library"}, models[1].Tags)
}

func TestDetailedSource_ParsesPagesInSlugOrder(t *testing.T) {
	var pageHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/library":
			fmt.Fprint(w, indexHTML)
		case "/library/llama3.2":
			pageHits.Add(1)
			fmt.Fprint(w, `<html><head><meta name="description" content="Meta's Llama 3.2"></head>
				<body><h1> Llama 3.2 </h1><span data-tag="tools"></span><span data-tag="1b"></span><p>Size 2.0GB</p></body></html>`)
		case "/library/gemma2":
			pageHits.Add(1)
			fmt.Fprint(w, `<html><body><h1>gemma2</h1></body></html>`)
		case "/library/broken":
			pageHits.Add(1)
			http.Error(w, "nope", http.StatusNotFound)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	models, err := NewDetailedSource(srv.URL, srv.Client()).Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, int32(3), pageHits.Load(), "slug q is too short to fetch")
	require.Equal(t, []string{"llama3.2", "gemma2"}, names(models))
	assert.Equal(t, "Meta's Llama 3.2", models[0].Description)
	assert.Equal(t, []string{"tools", "1b"}, models[0].Tags)
	assert.Equal(t, "2.0GB", models[0].Size)
	assert.Equal(t, "gemma2 model from Ollama", models[1].Description)
	assert.Equal(t, "Unknown", models[1].Size)
	assert.Equal(t, []string{"official"}, models[1].Tags)
}

func TestDetailedSource_DropsPagesWithoutTitleOrDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/library" {
			fmt.Fprint(w, `<a href="/library/blank">x</a>`)
			return
		}
		fmt.Fprint(w, `<html><body><p>nothing here</p></body></html>`)
	}))
	defer srv.Close()
	models, err := NewDetailedSource(srv.URL, srv.Client()).Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestStaticSource(t *testing.T) {
	models, err := StaticSource{}.Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, models, 24)
	models[0].Tags[0] = "mutated"
	again, _ := StaticSource{}.Fetch(context.Background(), Query{})
	assert.Equal(t, "chat", again[0].Tags[0])
}

func TestTagLister_ScrapesAndMarksInstalled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/library/gemma3/tags", r.URL.Path)
		fmt.Fprint(w, `<html><body>
			<a href="/library/gemma3:1b">gemma3:1b</a><span>815MB</span>
			<a href="/library/gemma3:4b">gemma3:4b</a><span>3.3 GB</span>
			<a href="/library/gemma3:1b">dup</a>
		</body></html>`)
	}))
	defer srv.Close()

	inv := &fakeInventory{models: []types.LocalModelRecord{{Name: "gemma3:4b"}}}
	tags, err := NewTagLister(srv.URL, srv.Client(), inv, zerolog.Nop()).Tags(context.Background(), "", "gemma3")
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "gemma3:1b", tags[0].Name)
	assert.Equal(t, "815MB", tags[0].Size)
	assert.False(t, tags[0].Installed)
	assert.Equal(t, "gemma3:4b", tags[1].Name)
	assert.Equal(t, "3.3 GB", tags[1].Size)
	assert.True(t, tags[1].Installed)
	require.NotNil(t, tags[1].LocalInfo)
	assert.Equal(t, "gemma3:4b", tags[1].LocalInfo.Name)
}

func TestTagLister_FallsBackToCommonVariants(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()
	l := NewTagLister(srv.URL, srv.Client(), &fakeInventory{}, zerolog.Nop())

	tags, err := l.Tags(context.Background(), "", "mistral")
	require.NoError(t, err)
	var got []string
	for _, v := range tags {
		got = append(got, v.Tag)
	}
	assert.Equal(t, []string{"7b", "latest"}, got)
	assert.Equal(t, "mistral model - 7b parameter variant", tags[0].Description)

	tags, err = l.Tags(context.Background(), "", "unknown-model")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "unknown-model:latest", tags[0].Name)

	_, err = l.Tags(context.Background(), "", "  ")
	assert.ErrorIs(t, err, ErrModelRequired)
}

func TestTagLister_EscapesModelInPath(t *testing.T) {
	var path, query atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.EscapedPath())
		query.Store(r.URL.RawQuery)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewTagLister(srv.URL, srv.Client(), &fakeInventory{}, zerolog.Nop()).Tags(context.Background(), "", "a?b#c")
	require.NoError(t, err)
	assert.Equal(t, "/library/a%3Fb%23c/tags", path.Load())
	assert.Equal(t, "", query.Load())
}

func TestParseTagsPage_QuotesModelName(t *testing.T) {
	tags := parseTagsPage("llama3.2", "llama3x2:bad llama3.2:3b", "")
	require.Len(t, tags, 1)
	assert.Equal(t, "3b", tags[0].Tag)
	assert.True(t, strings.HasPrefix(tags[0].Name, "llama3.2:"))
}
