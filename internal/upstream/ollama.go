package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"localchat/pkg/types"
)

// OllamaClient talks to the native REST API of an Ollama-compatible server.
// The endpoint is chosen per call because every browser request may point at
// a different server, so a typed api.Client is built for each call on the
// shared transport.
type OllamaClient struct {
	httpClient *http.Client
}

// NewHTTPClient builds the shared transport used for upstream calls.
// Timeout is left at zero: long pulls and chat streams are bounded by
// their request contexts instead.
func NewHTTPClient(connectTimeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: tr, Timeout: 0}
}

// NewOllamaClient returns a client using httpClient, or a default one when nil.
func NewOllamaClient(httpClient *http.Client) *OllamaClient {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	return &OllamaClient{httpClient: httpClient}
}

// typed builds an api.Client rooted at the native base of endpoint.
func (c *OllamaClient) typed(endpoint string) (*api.Client, error) {
	base, err := url.Parse(OllamaBase(endpoint, ""))
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	return api.NewClient(base, c.httpClient), nil
}

// apiError maps api.StatusError onto StatusError so callers see one error
// shape for every upstream call.
func apiError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var se api.StatusError
	if errors.As(err, &se) {
		return &StatusError{StatusCode: se.StatusCode, Body: se.ErrorMessage}
	}
	return err
}

// ListLocal returns the models installed on the server (GET /api/tags).
func (c *OllamaClient) ListLocal(ctx context.Context, endpoint string) ([]types.LocalModelRecord, error) {
	client, err := c.typed(endpoint)
	if err != nil {
		return nil, err
	}
	list, err := client.List(ctx)
	if err != nil {
		return nil, apiError(ctx, err)
	}
	models := make([]types.LocalModelRecord, 0, len(list.Models))
	for _, m := range list.Models {
		if m.Name == "" {
			continue
		}
		models = append(models, types.LocalModelRecord{
			Name:       m.Name,
			Model:      m.Model,
			Size:       m.Size,
			Digest:     m.Digest,
			ModifiedAt: m.ModifiedAt,
			Details: &types.ModelDetails{
				ParentModel:       m.Details.ParentModel,
				Format:            m.Details.Format,
				Family:            m.Details.Family,
				Families:          m.Details.Families,
				ParameterSize:     m.Details.ParameterSize,
				QuantizationLevel: m.Details.QuantizationLevel,
			},
		})
	}
	return models, nil
}

// Delete removes one installed model (DELETE /api/delete).
func (c *OllamaClient) Delete(ctx context.Context, endpoint, name string) error {
	client, err := c.typed(endpoint)
	if err != nil {
		return err
	}
	// Older servers only read "name".
	if err := client.Delete(ctx, &api.DeleteRequest{Model: name, Name: name}); err != nil {
		return apiError(ctx, err)
	}
	return nil
}

// Pull downloads a model and waits for the single consolidated response.
func (c *OllamaClient) Pull(ctx context.Context, endpoint, name string) (types.PullProgressEvent, error) {
	client, err := c.typed(endpoint)
	if err != nil {
		return types.PullProgressEvent{}, err
	}
	stream := false
	var ev types.PullProgressEvent
	err = client.Pull(ctx, &api.PullRequest{Model: name, Name: name, Stream: &stream}, func(p api.ProgressResponse) error {
		ev = types.PullProgressEvent{Status: p.Status, Digest: p.Digest, Total: p.Total, Completed: p.Completed}
		return nil
	})
	if err != nil {
		err = apiError(ctx, err)
		if _, ok := IsStatus(err); ok || ctx.Err() != nil {
			return ev, err
		}
		return ev, fmt.Errorf("pull %s: %w", name, err)
	}
	return ev, nil
}

// pullRequest is the body of a streaming pull.
type pullRequest struct {
	Model  string `json:"model"`
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

// PullStream starts a streaming pull and returns the raw NDJSON progress
// body; the caller must close it. api.Client.Pull is not used here: its
// callback loop aborts on the first line that is not JSON, while the relay
// skips such lines and keeps forwarding.
func (c *OllamaClient) PullStream(ctx context.Context, endpoint, name string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodPost, OllamaBase(endpoint, "")+"/api/pull", pullRequest{Model: name, Name: name, Stream: true})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Probe issues a GET to rawURL and returns how many models the response
// lists under "models" (Ollama) or "data" (OpenAI-compatible servers).
func (c *OllamaClient) Probe(ctx context.Context, rawURL string) (int, error) {
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	var body struct {
		Models []json.RawMessage `json:"models"`
		Data   []json.RawMessage `json:"data"`
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return 0, err
	}
	if err := json.Unmarshal(b, &body); err != nil {
		// Reachable but not a model listing.
		return 0, nil
	}
	return len(body.Models) + len(body.Data), nil
}

// do sends a JSON request and returns the response when the status is 2xx.
// Non-2xx responses are drained into a StatusError.
func (c *OllamaClient) do(ctx context.Context, method, rawURL string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	return resp, nil
}
