package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"localchat/pkg/types"
)

// ErrModelRequired is returned by TagLister.Tags for an empty model name.
var ErrModelRequired = errors.New("model name is required")

// commonVariants is used when the tags page yields nothing.
var commonVariants = map[string][]string{
	"gemma3":    {"1b", "3b", "8b", "latest"},
	"gemma2":    {"2b", "9b", "27b", "latest"},
	"llama3":    {"8b", "70b", "latest"},
	"llama3.1":  {"8b", "70b", "405b", "latest"},
	"llama3.2":  {"1b", "3b", "11b", "90b", "latest"},
	"qwen2.5":   {"0.5b", "1.5b", "3b", "7b", "14b", "32b", "72b", "latest"},
	"qwen3":     {"1.5b", "3b", "7b", "14b", "32b", "latest"},
	"phi3":      {"mini", "small", "medium", "latest"},
	"codellama": {"7b", "13b", "34b", "latest"},
	"mistral":   {"7b", "latest"},
	"mixtral":   {"8x7b", "8x22b", "latest"},
}

var tagSizeRe = regexp.MustCompile(`\d+(?:\.\d+)? ?[KMGT]B`)

// TagLister lists the tag variants of one catalog model.
type TagLister struct {
	page libraryPage
	inv  Inventory
	log  zerolog.Logger
}

// NewTagLister returns a lister scraping libraryURL and marking variants
// installed against inv.
func NewTagLister(libraryURL string, client *http.Client, inv Inventory, log zerolog.Logger) *TagLister {
	return &TagLister{page: newLibraryPage(libraryURL, client), inv: inv, log: log}
}

// Tags returns the variants of model with installed flags from endpoint.
// Scrape and inventory failures fall back silently.
func (l *TagLister) Tags(ctx context.Context, endpoint, model string) ([]types.ModelTagVariant, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, ErrModelRequired
	}
	variants, err := l.scrape(ctx, model)
	if err != nil {
		l.log.Debug().Err(err).Str("model", model).Msg("tags: scrape failed")
	}
	if len(variants) == 0 {
		variants = fallbackVariants(model)
	}

	var locals []types.LocalModelRecord
	if l.inv != nil {
		if locals, err = l.inv.ListLocal(ctx, endpoint); err != nil {
			l.log.Warn().Err(err).Str("endpoint", endpoint).Msg("tags: local inventory unavailable")
		}
	}
	for i := range variants {
		for _, m := range locals {
			if m.Name == variants[i].Name || strings.HasPrefix(m.Name, variants[i].Name) {
				rec := m
				variants[i].Installed = true
				variants[i].LocalInfo = &rec
				break
			}
		}
	}
	return variants, nil
}

func (l *TagLister) scrape(ctx context.Context, model string) ([]types.ModelTagVariant, error) {
	doc, err := l.page.fetch(ctx, "/library/"+url.PathEscape(model)+"/tags")
	if err != nil {
		return nil, err
	}
	html, err := doc.Html()
	if err != nil {
		return nil, err
	}
	return parseTagsPage(model, html, doc.Find("body").Text()), nil
}

// parseTagsPage collects distinct "<model>:<tag>" references from html and
// pairs them by position with the size strings found in text.
func parseTagsPage(model, html, text string) []types.ModelTagVariant {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(model) + `:([\w.\-]+)`)
	sizes := tagSizeRe.FindAllString(text, -1)
	var out []types.ModelTagVariant
	seen := make(map[string]bool)
	for _, m := range re.FindAllStringSubmatch(html, -1) {
		tag := m[1]
		if seen[tag] {
			continue
		}
		seen[tag] = true
		v := types.ModelTagVariant{
			Name:        model + ":" + tag,
			Model:       model,
			Tag:         tag,
			Description: model + " model - " + tag + " variant",
		}
		if i := len(out); i < len(sizes) {
			v.Size = sizes[i]
		}
		out = append(out, v)
	}
	return out
}

func fallbackVariants(model string) []types.ModelTagVariant {
	tags, ok := commonVariants[model]
	if !ok {
		tags = []string{"latest"}
	}
	out := make([]types.ModelTagVariant, 0, len(tags))
	for _, tag := range tags {
		desc := model + " model - " + tag + " variant"
		if strings.Contains(tag, "b") {
			desc = model + " model - " + tag + " parameter variant"
		}
		out = append(out, types.ModelTagVariant{Name: model + ":" + tag, Model: model, Tag: tag, Description: desc})
	}
	return out
}
