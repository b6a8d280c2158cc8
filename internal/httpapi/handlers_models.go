package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"localchat/internal/catalog"
	"localchat/internal/inventory"
	"localchat/internal/relay"
	"localchat/internal/upstream"
	"localchat/pkg/types"
)

func (h *handlers) endpoint(raw string) string {
	return upstream.OllamaBase(raw, h.svc.OllamaEndpoint)
}

// catalog godoc
// @Summary      Downloadable model catalog
// @Description  Returns the first non-empty catalog source with installed models marked.
// @Tags         models
// @Produce      json
// @Param        endpoint  query     string  false  "Ollama endpoint"
// @Param        search    query     string  false  "Case-insensitive name/description filter"
// @Param        sort_by   query     string  false  "popularity, name or recency"
// @Param        order     query     string  false  "asc or desc"
// @Success      200       {object}  types.CatalogResponse
// @Failure      500       {object}  types.ErrorResponse
// @Router       /models/catalog [get]
func (h *handlers) catalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := catalog.Query{
		Search: strings.TrimSpace(q.Get("search")),
		SortBy: catalog.ParseSortKey(q.Get("sort_by")),
		Order:  catalog.ParseOrder(q.Get("order")),
	}
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	res, err := h.svc.Catalog.Catalog(ctx, h.endpoint(q.Get("endpoint")), query)
	if err != nil {
		writeError(w, err)
		return
	}
	catalogSourceTotal.WithLabelValues(res.Source).Inc()
	if requestLogLevel(r) >= LevelDebug {
		reqLog(r).Debug().Str("source", res.Source).Int("models", len(res.Models)).Msg("catalog")
	}
	writeJSON(w, http.StatusOK, types.CatalogResponse{
		Success:     true,
		Models:      res.Models,
		LocalModels: res.LocalModels,
		Source:      res.Source,
	})
}

// tags godoc
// @Summary      Tag variants of a model
// @Tags         models
// @Produce      json
// @Param        model     query     string  true   "Model name, e.g. gemma3"
// @Param        endpoint  query     string  false  "Ollama endpoint"
// @Success      200       {object}  types.TagsResponse
// @Failure      400       {object}  types.ErrorResponse
// @Router       /models/tags [get]
func (h *handlers) tags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	model := strings.TrimSpace(q.Get("model"))
	if model == "" {
		writeJSONError(w, http.StatusBadRequest, "model name is required")
		return
	}
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	tags, err := h.svc.Tags.Tags(ctx, h.endpoint(q.Get("endpoint")), model)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.TagsResponse{Success: true, Model: model, Tags: tags})
}

// listLocal godoc
// @Summary      Installed models
// @Tags         models
// @Produce      json
// @Param        endpoint  query     string  false  "Ollama endpoint"
// @Success      200       {object}  types.LocalModelsResponse
// @Failure      500       {object}  types.LocalModelsResponse
// @Router       /models/local [get]
func (h *handlers) listLocal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	models, err := h.svc.Inventory.List(ctx, h.endpoint(r.URL.Query().Get("endpoint")))
	if err != nil {
		if requestLogLevel(r) >= LevelError {
			reqLog(r).Error().Err(err).Msg("list local models")
		}
		writeJSON(w, http.StatusInternalServerError, types.LocalModelsResponse{
			Error:  "Failed to list local models: " + err.Error(),
			Models: []types.LocalModelView{},
		})
		return
	}
	writeJSON(w, http.StatusOK, types.LocalModelsResponse{Success: true, Models: models, Count: len(models)})
}

// deleteLocal godoc
// @Summary      Delete installed models
// @Description  Deletes one (modelName) or several (modelNames) models sequentially.
// @Tags         models
// @Accept       json
// @Produce      json
// @Param        request  body      types.DeleteRequest  true  "Models to delete"
// @Success      200      {object}  types.DeleteResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      500      {object}  types.DeleteResponse
// @Router       /models/local [delete]
func (h *handlers) deleteLocal(w http.ResponseWriter, r *http.Request) {
	var req types.DeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	res, err := h.svc.Inventory.DeleteMany(ctx, h.endpoint(req.Endpoint), inventory.Names(req), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	status, body := res.Response()
	if requestLogLevel(r) >= LevelInfo {
		reqLog(r).Info().Int("deleted", len(res.Deleted)).Int("failed", len(res.Errors)).Str("reason", req.Reason).Msg("delete models")
	}
	writeJSON(w, status, body)
}

// manage godoc
// @Summary      Pull or delete one model
// @Description  pull blocks until the upstream reports completion.
// @Tags         models
// @Accept       json
// @Produce      json
// @Param        request  body      types.ManageRequest  true  "Model and action"
// @Success      200      {object}  types.MessageResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Router       /models/manage [post]
func (h *handlers) manage(w http.ResponseWriter, r *http.Request) {
	var req types.ManageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	msg, err := h.svc.Inventory.Manage(ctx, h.endpoint(req.Endpoint), strings.TrimSpace(req.ModelName), strings.TrimSpace(req.Action))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.MessageResponse{Success: true, Message: msg})
}

// pullProbe godoc
// @Summary      Pull stream liveness
// @Tags         models
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /models/pull-stream [get]
func (h *handlers) pullProbe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "pull-stream API is working",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// pullStream godoc
// @Summary      Stream a model download
// @Description  Relays upstream pull progress as SSE frames ending in exactly one success or error frame.
// @Tags         models
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body      types.PullStreamRequest  true  "Model to pull"
// @Success      200      {string}  string                   "data: <progress json>"
// @Failure      400      {object}  types.ErrorResponse
// @Router       /models/pull-stream [post]
func (h *handlers) pullStream(w http.ResponseWriter, r *http.Request) {
	var req types.PullStreamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	model := strings.TrimSpace(req.ModelName)
	if model == "" {
		writeError(w, relay.ErrModelRequired)
		return
	}
	flush := setEventStreamHeaders(w)
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	outcome, err := h.svc.Pull.Relay(ctx, h.endpoint(req.Endpoint), model, w, flush)
	if err != nil {
		writeError(w, err)
		return
	}
	pullRelayTotal.WithLabelValues(string(outcome)).Inc()
}

// openAIModels godoc
// @Summary      Chat models of an OpenAI account
// @Tags         models
// @Produce      json
// @Param        apiKey  query     string  false  "OpenAI API key; the server default is used when empty"
// @Success      200     {object}  types.OpenAIModelsResponse
// @Failure      400     {object}  types.ErrorResponse
// @Failure      500     {object}  types.ErrorResponse
// @Router       /models/openai [get]
func (h *handlers) openAIModels(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.URL.Query().Get("apiKey"))
	if key == "" {
		key = h.svc.OpenAIAPIKey
	}
	if key == "" {
		writeJSONError(w, http.StatusBadRequest, "OpenAI API key is required")
		return
	}
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	list, err := h.svc.OpenAI.ListModels(ctx, key)
	if err != nil {
		writeJSONErrorDetails(w, http.StatusInternalServerError, "Failed to fetch OpenAI models", err.Error())
		return
	}
	models := make([]types.OpenAIModel, 0, len(list))
	for _, m := range list {
		if !upstream.IsChatModel(m.ID) {
			continue
		}
		models = append(models, types.OpenAIModel{
			ID:          m.ID,
			Name:        m.ID,
			Description: openAIDescription(m.ID),
			Created:     m.CreatedAt,
			OwnedBy:     m.OwnedBy,
			IsFineTuned: strings.HasPrefix(m.ID, "ft:"),
		})
	}
	writeJSON(w, http.StatusOK, types.OpenAIModelsResponse{Success: true, Models: models})
}

func openAIDescription(id string) string {
	if rest, ok := strings.CutPrefix(id, "ft:"); ok {
		return "Fine-tuned model: " + rest
	}
	return "OpenAI " + id
}

// testConnection godoc
// @Summary      Test an upstream connection
// @Description  With endpoint, GETs it and counts listed models; otherwise lists OpenAI models with apiKey or the default key.
// @Tags         connection
// @Accept       json
// @Produce      json
// @Param        request  body      types.TestConnectionRequest  true  "Endpoint or API key"
// @Success      200      {object}  types.MessageResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      500      {object}  types.MessageResponse
// @Router       /test-connection [post]
func (h *handlers) testConnection(w http.ResponseWriter, r *http.Request) {
	var req types.TestConnectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := requestContext(r.Context())
	defer cancel()

	var (
		n   int
		err error
	)
	switch endpoint, key := strings.TrimSpace(req.Endpoint), strings.TrimSpace(req.APIKey); {
	case endpoint != "":
		n, err = h.svc.Prober.Probe(ctx, endpoint)
	case key != "" || h.svc.OpenAIAPIKey != "":
		if key == "" {
			key = h.svc.OpenAIAPIKey
		}
		models, lerr := h.svc.OpenAI.ListModels(ctx, key)
		n, err = len(models), lerr
	default:
		writeJSONError(w, http.StatusBadRequest, "endpoint or apiKey is required")
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, types.MessageResponse{Error: "Connection failed: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, types.MessageResponse{
		Success: true,
		Message: "Connection succeeded - " + strconv.Itoa(n) + " models available",
	})
}
