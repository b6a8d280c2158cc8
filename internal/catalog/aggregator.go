package catalog

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"localchat/internal/relay"
	"localchat/internal/upstream"
	"localchat/pkg/types"
)

// Inventory lists the models installed on an upstream server.
type Inventory interface {
	ListLocal(ctx context.Context, endpoint string) ([]types.LocalModelRecord, error)
}

// Result is one aggregated catalog.
type Result struct {
	Models      []types.ModelDescriptor
	LocalModels []types.LocalModelRecord
	Source      string
}

// Aggregator walks its sources in order and returns the first non-empty
// list. Sources never run concurrently.
type Aggregator struct {
	inv     Inventory
	sources []Source
	log     zerolog.Logger
}

// NewAggregator returns an aggregator over sources. When no sources are
// given only the static fallback is used.
func NewAggregator(inv Inventory, log zerolog.Logger, sources ...Source) *Aggregator {
	if len(sources) == 0 {
		sources = []Source{StaticSource{}}
	}
	return &Aggregator{inv: inv, sources: sources, log: log}
}

// DefaultSources is the production chain: third-party API, library index,
// detailed page scrape, static list.
func DefaultSources(catalogAPI, libraryURL string, client *http.Client) []Source {
	return []Source{
		NewThirdPartySource(catalogAPI, client),
		NewLibraryIndexSource(libraryURL, client),
		NewDetailedSource(libraryURL, client),
		StaticSource{},
	}
}

// Catalog builds the catalog for q and marks entries installed on endpoint.
// An inventory that answers with a non-2xx status counts as empty; one that
// cannot be reached fails the request with a *relay.UpstreamError. An
// exhausted chain yields an empty catalog with source "fallback".
func (a *Aggregator) Catalog(ctx context.Context, endpoint string, q Query) (Result, error) {
	var locals []types.LocalModelRecord
	if a.inv != nil {
		l, err := a.inv.ListLocal(ctx, endpoint)
		switch _, isStatus := upstream.IsStatus(err); {
		case err == nil:
			locals = l
		case isStatus:
			a.log.Warn().Err(err).Str("endpoint", endpoint).Msg("catalog: local inventory unavailable")
		default:
			return Result{}, &relay.UpstreamError{Provider: relay.ProviderOllama, Err: err}
		}
	}
	if locals == nil {
		locals = []types.LocalModelRecord{}
	}

	res := Result{LocalModels: locals, Source: SourceFallback}
	for _, src := range a.sources {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		models, err := src.Fetch(ctx, q)
		if err != nil {
			a.log.Debug().Err(err).Str("source", src.Name()).Msg("catalog: source failed")
			continue
		}
		if len(models) == 0 {
			a.log.Debug().Str("source", src.Name()).Msg("catalog: source empty")
			continue
		}
		a.log.Debug().Str("source", src.Name()).Int("count", len(models)).Msg("catalog: source selected")
		res.Models = models
		res.Source = src.Name()
		break
	}
	if res.Source != SourceThirdParty {
		res.Models = filterAndSort(res.Models, q)
	}
	if res.Models == nil {
		res.Models = []types.ModelDescriptor{}
	}
	MarkInstalled(res.Models, locals)
	return res, nil
}

// filterAndSort applies search and ordering for sources that cannot do it
// themselves. Popularity keeps the source order.
func filterAndSort(models []types.ModelDescriptor, q Query) []types.ModelDescriptor {
	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		kept := models[:0:0]
		for _, m := range models {
			if strings.Contains(strings.ToLower(m.Name), s) || strings.Contains(strings.ToLower(m.Description), s) {
				kept = append(kept, m)
			}
		}
		models = kept
	}
	asc := q.Order == OrderAsc
	switch q.SortBy {
	case SortName:
		sort.SliceStable(models, func(i, j int) bool {
			if asc {
				return models[i].Name < models[j].Name
			}
			return models[i].Name > models[j].Name
		})
	case SortRecency:
		sort.SliceStable(models, func(i, j int) bool {
			ti, tj := updated(models[i]), updated(models[j])
			if asc {
				return ti.Before(tj)
			}
			return ti.After(tj)
		})
	}
	return models
}

func updated(m types.ModelDescriptor) time.Time {
	if m.UpdatedAt == nil {
		return time.Time{}
	}
	return *m.UpdatedAt
}
