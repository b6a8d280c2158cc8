// Package catalog builds the list of downloadable models from a fixed chain
// of sources and marks entries already installed on the upstream server.
package catalog

import (
	"context"
	"strings"

	"localchat/pkg/types"
)

// Source names reported in the catalog response.
const (
	SourceThirdParty = "ollamadb"
	SourceLibrary    = "ollama-library-scraping"
	SourceDetailed   = "ollama-library-detailed"
	SourceFallback   = "fallback"
)

// Source is one variant of the catalog fallback chain. An empty result
// means "try the next source"; errors are treated the same way by the
// Aggregator.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]types.ModelDescriptor, error)
}

// SortKey orders the catalog.
type SortKey string

const (
	SortPopularity SortKey = "popularity"
	SortName       SortKey = "name"
	SortRecency    SortKey = "recency"
)

// Order is the sort direction.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Query is a catalog request.
type Query struct {
	Search string
	SortBy SortKey
	Order  Order
}

// ParseSortKey maps the accepted sort_by spellings to a SortKey.
// Unknown or empty values mean popularity.
func ParseSortKey(s string) SortKey {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return SortName
	case "recency", "last_updated", "updated", "updated_at":
		return SortRecency
	default:
		return SortPopularity
	}
}

// ParseOrder maps order to asc or desc (the default).
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), "asc") {
		return OrderAsc
	}
	return OrderDesc
}

// apiSortParam is the sort_by value understood by the third-party API.
func (k SortKey) apiSortParam() string {
	switch k {
	case SortName:
		return "name"
	case SortRecency:
		return "last_updated"
	default:
		return "pulls"
	}
}
