package relay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"localchat/internal/upstream"
	"localchat/pkg/types"
)

// Puller starts a streaming pull. *upstream.OllamaClient satisfies it.
type Puller interface {
	PullStream(ctx context.Context, endpoint, name string) (io.ReadCloser, error)
}

// PullOutcome classifies how a relayed pull ended.
type PullOutcome string

const (
	PullSucceeded     PullOutcome = "success"
	PullStartFailed   PullOutcome = "start_failed"
	PullUpstreamError PullOutcome = "upstream_error"
	PullInterrupted   PullOutcome = "interrupted"
)

// completedMessage accompanies the synthesized success frame.
const completedMessage = "Download completed"

// ErrModelRequired rejects a pull without a model name.
var ErrModelRequired = &ConfigError{Msg: "model name is required", Details: "modelName is empty"}

// PullRelay forwards upstream pull progress as SSE frames.
type PullRelay struct {
	puller Puller
	log    zerolog.Logger
}

// NewPullRelay returns a relay over puller.
func NewPullRelay(puller Puller, log zerolog.Logger) *PullRelay {
	return &PullRelay{puller: puller, log: log}
}

// Relay pulls model from endpoint and writes one frame per upstream JSON
// line, in order, followed by exactly one terminal frame: a success frame
// on clean end, or an error frame. Upstream success lines are suppressed
// and an upstream error line becomes the terminal frame. The only error
// returned is ErrModelRequired; everything else is reported in-band.
func (p *PullRelay) Relay(ctx context.Context, endpoint, model string, w io.Writer, flush func()) (PullOutcome, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", ErrModelRequired
	}
	id := uuid.NewString()
	log := p.log.With().Str("pull_id", id).Str("model", model).Logger()
	log.Info().Str("endpoint", endpoint).Msg("pull start")

	body, err := p.puller.PullStream(ctx, endpoint, model)
	if err != nil {
		msg := "Download failed: " + err.Error()
		if _, ok := upstream.IsStatus(err); ok {
			msg = "Failed to start pull: " + err.Error()
		}
		log.Warn().Err(err).Msg("pull start failed")
		p.terminal(w, flush, types.PullProgressEvent{Error: msg})
		return PullStartFailed, nil
	}
	defer body.Close()

	frames := 0
	br := bufio.NewReader(body)
	for {
		line, rerr := br.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			switch kind, payload := classifyLine(line); kind {
			case lineProgress:
				if err := writeFrame(w, flush, payload); err != nil {
					log.Debug().Err(err).Int("frames", frames).Msg("pull client gone")
					return PullInterrupted, nil
				}
				frames++
			case lineError:
				log.Warn().RawJSON("event", payload).Msg("pull upstream error")
				_ = writeFrame(w, flush, payload)
				return PullUpstreamError, nil
			}
		}
		if rerr == nil {
			continue
		}
		if errors.Is(rerr, io.EOF) {
			log.Info().Int("frames", frames).Msg("pull done")
			p.terminal(w, flush, types.PullProgressEvent{Status: "success", Message: completedMessage})
			return PullSucceeded, nil
		}
		log.Warn().Err(rerr).Int("frames", frames).Msg("pull interrupted")
		p.terminal(w, flush, types.PullProgressEvent{Error: "Download failed: " + rerr.Error()})
		return PullInterrupted, nil
	}
}

func (p *PullRelay) terminal(w io.Writer, flush func(), ev types.PullProgressEvent) {
	b, _ := json.Marshal(ev)
	_ = writeFrame(w, flush, b)
}

type lineKind int

const (
	lineSkip lineKind = iota
	lineProgress
	lineError
)

// classifyLine compacts one NDJSON line and reports how to relay it.
// Non-JSON lines and upstream success lines are skipped.
func classifyLine(line []byte) (lineKind, []byte) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, bytes.TrimSpace(line)); err != nil {
		return lineSkip, nil
	}
	var probe struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(buf.Bytes(), &probe); err != nil {
		// Valid JSON but not an object; forwarded as-is.
		return lineProgress, buf.Bytes()
	}
	switch {
	case probe.Error != "":
		return lineError, buf.Bytes()
	case probe.Status == "success":
		return lineSkip, nil
	}
	return lineProgress, buf.Bytes()
}
