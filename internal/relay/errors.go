package relay

import (
	"errors"
	"net/http"
)

// ConfigError rejects a request before any upstream call.
type ConfigError struct {
	Msg     string
	Details string
}

func (e *ConfigError) Error() string { return e.Msg }

func (e *ConfigError) StatusCode() int { return http.StatusBadRequest }

func configError(msg, details string) error { return &ConfigError{Msg: msg, Details: details} }

// IsConfigError reports whether err is a request configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// UpstreamError reports that the provider rejected the request before the
// first chunk was relayed. Status is the upstream HTTP status when known.
type UpstreamError struct {
	Provider string
	Status   int
	Err      error
}

func (e *UpstreamError) Error() string {
	return "failed to reach " + e.Provider + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) StatusCode() int { return http.StatusInternalServerError }

// IsUpstreamError reports whether err is an *UpstreamError.
func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// midStreamError marks a failure after at least one frame was written. The
// response is already committed, so callers can only log it.
type midStreamError struct{ err error }

func (e midStreamError) Error() string { return "stream interrupted: " + e.err.Error() }

func (e midStreamError) Unwrap() error { return e.err }

// IsMidStream reports whether err happened after the stream had started.
func IsMidStream(err error) bool {
	var me midStreamError
	return errors.As(err, &me)
}
