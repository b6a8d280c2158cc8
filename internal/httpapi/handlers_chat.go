package httpapi

import (
	"io"
	"net/http"
	"time"

	"localchat/internal/relay"
	"localchat/pkg/types"
)

// chat godoc
// @Summary      Stream a chat completion
// @Description  Relays the conversation to Ollama or OpenAI and streams OpenAI-style SSE chunks terminated by [DONE].
// @Tags         chat
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body      types.ChatRequest  true  "Conversation and provider selection"
// @Success      200      {string}  string             "data: <chunk json>"
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Router       /chat [post]
func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	log := reqLog(r)
	target, err := h.svc.Chat.Resolve(req)
	if err != nil {
		chatStreamsTotal.WithLabelValues("none", "rejected").Inc()
		writeError(w, err)
		return
	}

	lvl := requestLogLevel(r)
	start := time.Now()
	if lvl >= LevelInfo {
		log.Info().Str("provider", target.Provider).Str("model", target.Model).Int("messages", len(req.Messages)).Msg("chat start")
	}
	flush := setEventStreamHeaders(w)
	writer := io.Writer(w)
	if lvl >= LevelDebug {
		writer = io.MultiWriter(w, &loggingLineWriter{log: log})
	}

	ctx, cancel := requestContext(r.Context())
	defer cancel()
	err = h.svc.Chat.Stream(ctx, target, req.Messages, writer, flush)
	switch {
	case err == nil:
		chatStreamsTotal.WithLabelValues(target.Provider, "ok").Inc()
		if lvl >= LevelInfo {
			log.Info().Dur("dur", time.Since(start)).Msg("chat end")
		}
	case relay.IsMidStream(err):
		// Headers and frames are already out; the stream ends without [DONE].
		chatStreamsTotal.WithLabelValues(target.Provider, "truncated").Inc()
		if lvl >= LevelError {
			log.Error().Err(err).Dur("dur", time.Since(start)).Msg("chat stream truncated")
		}
	case r.Context().Err() != nil || serverBaseCtx().Err() != nil:
		chatStreamsTotal.WithLabelValues(target.Provider, "canceled").Inc()
	default:
		chatStreamsTotal.WithLabelValues(target.Provider, "upstream_error").Inc()
		if lvl >= LevelError {
			log.Error().Err(err).Dur("dur", time.Since(start)).Msg("chat upstream rejected")
		}
		w.Header().Del("Cache-Control")
		w.Header().Del("Connection")
		w.Header().Del("X-Accel-Buffering")
		writeError(w, err)
	}
}
