package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"localchat/internal/common/humanize"
	"localchat/internal/upstream"
	"localchat/pkg/types"
)

// DefaultThirdPartyURL is the public aggregation API queried first.
const DefaultThirdPartyURL = "https://ollama-models-api.up.railway.app"

// ThirdPartySource queries a JSON aggregation API of the public catalog.
type ThirdPartySource struct {
	BaseURL string
	Limit   int
	Client  *http.Client
}

// NewThirdPartySource returns a source for baseURL (DefaultThirdPartyURL when empty).
func NewThirdPartySource(baseURL string, client *http.Client) *ThirdPartySource {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultThirdPartyURL
	}
	if client == nil {
		client = upstream.NewHTTPClient(0)
	}
	return &ThirdPartySource{BaseURL: strings.TrimRight(baseURL, "/"), Limit: 50, Client: client}
}

func (s *ThirdPartySource) Name() string { return SourceThirdParty }

// thirdPartyModel is the upstream entry schema. Several spellings exist for
// the same field; the first non-empty one wins.
type thirdPartyModel struct {
	ModelName   string          `json:"model_name"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Title       string          `json:"title"`
	Size        json.RawMessage `json:"size"`
	SizeBytes   int64           `json:"sizeBytes"`
	Labels      []string        `json:"labels"`
	Tags        []string        `json:"tags"`
	LastUpdated string          `json:"last_updated"`
	UpdatedAt   string          `json:"updatedAt"`
	ModifiedAt  string          `json:"modified_at"`
	Downloads   json.RawMessage `json:"downloads"`
	Pulls       json.RawMessage `json:"pulls"`
}

func (s *ThirdPartySource) Fetch(ctx context.Context, q Query) ([]types.ModelDescriptor, error) {
	v := url.Values{}
	limit := s.Limit
	if limit <= 0 {
		limit = 50
	}
	v.Set("limit", strconv.Itoa(limit))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	v.Set("sort_by", q.SortBy.apiSortParam())
	order := q.Order
	if order == "" {
		order = OrderDesc
	}
	v.Set("order", string(order))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/models?"+v.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Local-LLM-Chat/1.0")
	req.Header.Set("Accept", "application/json")
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &upstream.StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	var envelope struct {
		Models []json.RawMessage `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode catalog api: %w", err)
	}
	out := make([]types.ModelDescriptor, 0, len(envelope.Models))
	for _, raw := range envelope.Models {
		var m thirdPartyModel
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		if d, ok := m.descriptor(); ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m thirdPartyModel) descriptor() (types.ModelDescriptor, bool) {
	name := firstNonEmpty(m.ModelName, m.Name, m.Slug)
	if name == "" {
		return types.ModelDescriptor{}, false
	}
	size, sizeBytes := parseSize(m.Size)
	if sizeBytes == 0 {
		sizeBytes = m.SizeBytes
	}
	if size == "" {
		if sizeBytes > 0 {
			size = humanize.Bytes(sizeBytes)
		} else {
			size = "Unknown"
		}
	}
	tags := m.Labels
	if len(tags) == 0 {
		tags = m.Tags
	}
	if len(tags) == 0 {
		tags = []string{"official"}
	}
	d := types.ModelDescriptor{
		Name:        name,
		Description: firstNonEmpty(m.Description, m.Title, name+" model"),
		Size:        size,
		Tags:        tags,
		Official:    true,
		UpdatedAt:   parseTime(firstNonEmpty(m.LastUpdated, m.UpdatedAt, m.ModifiedAt)),
	}
	d.Pulls = parseCount(m.Pulls)
	d.Downloads = parseCount(m.Downloads)
	return d, true
}

// parseSize accepts a display string or a byte count.
func parseSize(raw json.RawMessage) (string, int64) {
	if len(raw) == 0 {
		return "", 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return "", int64(n)
	}
	return "", 0
}

// parseCount accepts a JSON number or a display string such as "1.2M".
func parseCount(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int64(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	mult := 1.0
	switch {
	case strings.HasSuffix(strings.ToUpper(s), "K"):
		mult = 1e3
	case strings.HasSuffix(strings.ToUpper(s), "M"):
		mult = 1e6
	case strings.HasSuffix(strings.ToUpper(s), "B"):
		mult = 1e9
	}
	if mult != 1 {
		s = s[:len(s)-1]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f * mult)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
