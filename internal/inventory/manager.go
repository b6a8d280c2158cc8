// Package inventory manages the models installed on an Ollama server:
// listing for display, single and bulk delete, and blocking pull.
package inventory

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"localchat/internal/common/humanize"
	"localchat/pkg/types"
)

// Upstream is the part of the Ollama client used here.
// *upstream.OllamaClient satisfies it.
type Upstream interface {
	ListLocal(ctx context.Context, endpoint string) ([]types.LocalModelRecord, error)
	Delete(ctx context.Context, endpoint, name string) error
	Pull(ctx context.Context, endpoint, name string) (types.PullProgressEvent, error)
}

// Manager runs inventory operations against a per-request endpoint.
type Manager struct {
	up  Upstream
	log zerolog.Logger
	loc *time.Location
}

// NewManager returns a manager formatting timestamps in loc (time.Local when nil).
func NewManager(up Upstream, log zerolog.Logger, loc *time.Location) *Manager {
	if loc == nil {
		loc = time.Local
	}
	return &Manager{up: up, log: log, loc: loc}
}

// List returns the installed models with display fields, largest first.
func (m *Manager) List(ctx context.Context, endpoint string) ([]types.LocalModelView, error) {
	recs, err := m.up.ListLocal(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	out := make([]types.LocalModelView, 0, len(recs))
	for _, r := range recs {
		out = append(out, types.LocalModelView{
			LocalModelRecord:  r,
			SizeFormatted:     humanize.Bytes(r.Size),
			ModifiedFormatted: humanize.Timestamp(r.ModifiedAt, m.loc),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Size > out[j].Size })
	return out, nil
}

// DeleteResult collects the per-model outcome of a delete batch.
type DeleteResult struct {
	Deleted []string
	// Errors holds one "<name>: <reason>" entry per failed model.
	Errors []string
	Total  int
}

// Response maps the result to its HTTP status and body: all deleted is 200,
// all failed is 500, partial success is 200 with errors.
func (r DeleteResult) Response() (int, types.DeleteResponse) {
	switch {
	case len(r.Errors) == 0:
		msg := fmt.Sprintf("Deleted %d models: %s", len(r.Deleted), strings.Join(r.Deleted, ", "))
		if r.Total == 1 {
			msg = fmt.Sprintf("Deleted model %q", r.Deleted[0])
		}
		return http.StatusOK, types.DeleteResponse{Success: true, Message: msg, Deleted: r.Deleted, Total: r.Total}
	case len(r.Deleted) == 0:
		return http.StatusInternalServerError, types.DeleteResponse{
			Error:  "Delete failed: " + strings.Join(r.Errors, "; "),
			Errors: r.Errors,
		}
	default:
		return http.StatusOK, types.DeleteResponse{
			Success: true,
			Message: fmt.Sprintf("Deleted %d models (%d failed)", len(r.Deleted), len(r.Errors)),
			Deleted: r.Deleted,
			Errors:  r.Errors,
			Total:   r.Total,
		}
	}
}

// Names returns the batch named by req: modelNames when present, otherwise
// the single modelName. Blank entries are dropped.
func Names(req types.DeleteRequest) []string {
	src := req.ModelNames
	if len(src) == 0 && req.ModelName != "" {
		src = []string{req.ModelName}
	}
	out := make([]string, 0, len(src))
	for _, n := range src {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// DeleteMany deletes names one after another. A failure does not stop the
// batch and nothing is rolled back.
func (m *Manager) DeleteMany(ctx context.Context, endpoint string, names []string, reason string) (DeleteResult, error) {
	if len(names) == 0 {
		return DeleteResult{}, ErrModelRequired
	}
	res := DeleteResult{Total: len(names)}
	for _, name := range names {
		ev := m.log.Info().Str("model", name)
		if reason != "" {
			ev = ev.Str("reason", reason)
		}
		ev.Msg("delete model")
		if err := m.up.Delete(ctx, endpoint, name); err != nil {
			m.log.Warn().Err(err).Str("model", name).Msg("delete failed")
			res.Errors = append(res.Errors, name+": "+err.Error())
			continue
		}
		res.Deleted = append(res.Deleted, name)
	}
	return res, nil
}

// Manage actions.
const (
	ActionPull   = "pull"
	ActionDelete = "delete"
)

// Manage runs a blocking pull or a delete and returns the success message.
func (m *Manager) Manage(ctx context.Context, endpoint, name, action string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrModelRequired
	}
	switch action {
	case ActionPull:
		m.log.Info().Str("model", name).Msg("pull model (blocking)")
		if _, err := m.up.Pull(ctx, endpoint, name); err != nil {
			return "", &OpError{Op: "pull", Model: name, Err: err}
		}
		return fmt.Sprintf("Model %q downloaded", name), nil
	case ActionDelete:
		m.log.Info().Str("model", name).Msg("delete model")
		if err := m.up.Delete(ctx, endpoint, name); err != nil {
			return "", &OpError{Op: "delete", Model: name, Err: err}
		}
		return fmt.Sprintf("Deleted model %q", name), nil
	default:
		return "", ErrInvalidAction
	}
}
