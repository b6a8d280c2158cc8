package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"localchat/internal/upstream"
	"localchat/pkg/types"
)

// DefaultLibraryURL is the root of the public model library site.
const DefaultLibraryURL = "https://ollama.com"

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// sizeRe matches display sizes such as "4.7GB" or "815 MB".
var sizeRe = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?\s?[KMGT]B)\b`)

// libraryPage fetches and parses one HTML page of the library site.
type libraryPage struct {
	base   string
	client *http.Client
}

func newLibraryPage(base string, client *http.Client) libraryPage {
	if strings.TrimSpace(base) == "" {
		base = DefaultLibraryURL
	}
	if client == nil {
		client = upstream.NewHTTPClient(0)
	}
	return libraryPage{base: strings.TrimRight(base, "/"), client: client}
}

func (p libraryPage) fetch(ctx context.Context, path string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &upstream.StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// librarySlugs returns the distinct model names linked as /library/<name>,
// in document order. Nested paths (tags, blobs) are skipped.
func librarySlugs(doc *goquery.Document, minLen int) []string {
	var slugs []string
	seen := make(map[string]bool)
	doc.Find(`a[href^="/library/"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		slug := strings.TrimSpace(strings.TrimPrefix(href, "/library/"))
		if slug == "" || len(slug) < minLen || strings.ContainsAny(slug, "/?#") || seen[slug] {
			return
		}
		seen[slug] = true
		slugs = append(slugs, slug)
	})
	return slugs
}

// LibraryIndexSource lists model names from the library index page and
// fills in placeholder metadata.
type LibraryIndexSource struct {
	page  libraryPage
	Limit int
}

// NewLibraryIndexSource returns the index scraper for libraryURL.
func NewLibraryIndexSource(libraryURL string, client *http.Client) *LibraryIndexSource {
	return &LibraryIndexSource{page: newLibraryPage(libraryURL, client), Limit: 30}
}

func (s *LibraryIndexSource) Name() string { return SourceLibrary }

func (s *LibraryIndexSource) Fetch(ctx context.Context, _ Query) ([]types.ModelDescriptor, error) {
	doc, err := s.page.fetch(ctx, "/library")
	if err != nil {
		return nil, err
	}
	slugs := librarySlugs(doc, 1)
	if s.Limit > 0 && len(slugs) > s.Limit {
		slugs = slugs[:s.Limit]
	}
	out := make([]types.ModelDescriptor, 0, len(slugs))
	for _, slug := range slugs {
		out = append(out, types.ModelDescriptor{
			Name:        slug,
			Description: "Official " + slug + " model from Ollama Library",
			Size:        "Unknown",
			Tags:        []string{"official", "library"},
			Official:    true,
		})
	}
	return out, nil
}

// DetailedSource scrapes each model page linked from the library index.
// At most Limit pages are fetched, all of them concurrently.
type DetailedSource struct {
	page  libraryPage
	Limit int
}

// NewDetailedSource returns the per-page scraper for libraryURL.
func NewDetailedSource(libraryURL string, client *http.Client) *DetailedSource {
	return &DetailedSource{page: newLibraryPage(libraryURL, client), Limit: 20}
}

func (s *DetailedSource) Name() string { return SourceDetailed }

func (s *DetailedSource) Fetch(ctx context.Context, _ Query) ([]types.ModelDescriptor, error) {
	doc, err := s.page.fetch(ctx, "/library")
	if err != nil {
		return nil, err
	}
	slugs := librarySlugs(doc, 2)
	limit := s.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(slugs) > limit {
		slugs = slugs[:limit]
	}

	results := make([]*types.ModelDescriptor, len(slugs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, slug := range slugs {
		g.Go(func() error {
			page, err := s.page.fetch(gctx, "/library/"+url.PathEscape(slug))
			if err != nil {
				// A failed page only drops that entry.
				return nil
			}
			results[i] = parseModelPage(slug, page)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]types.ModelDescriptor, 0, len(results))
	for _, d := range results {
		if d != nil {
			out = append(out, *d)
		}
	}
	return out, nil
}

// parseModelPage extracts title, description, tags and size from a model
// page. It returns nil when the page carries neither a heading nor a meta
// description.
func parseModelPage(slug string, doc *goquery.Document) *types.ModelDescriptor {
	title := strings.TrimSpace(doc.Find("h1").First().Text())
	desc, hasDesc := doc.Find(`meta[name="description"]`).First().Attr("content")
	desc = strings.TrimSpace(desc)
	if title == "" && (!hasDesc || desc == "") {
		return nil
	}
	if title == "" {
		title = slug
	}
	if desc == "" {
		desc = title + " model from Ollama"
	}
	var tags []string
	doc.Find("[data-tag]").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("data-tag"); ok && strings.TrimSpace(v) != "" {
			tags = append(tags, strings.TrimSpace(v))
		}
	})
	if len(tags) == 0 {
		tags = []string{"official"}
	}
	size := "Unknown"
	if m := sizeRe.FindStringSubmatch(doc.Find("body").Text()); m != nil {
		size = m[1]
	}
	return &types.ModelDescriptor{
		Name:        slug,
		Description: desc,
		Size:        size,
		Tags:        tags,
		Official:    true,
	}
}
