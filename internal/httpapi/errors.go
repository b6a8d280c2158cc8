package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"localchat/internal/relay"
	"localchat/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSONErrorDetails(w, status, msg, "")
}

func writeJSONErrorDetails(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Details: details, Code: status})
}

// writeError maps err to a status through HTTPError (500 otherwise). Relay
// configuration and upstream errors carry their detail text.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var he HTTPError
	if errors.As(err, &he) {
		status = he.StatusCode()
	}
	var ce *relay.ConfigError
	if errors.As(err, &ce) {
		writeJSONErrorDetails(w, status, ce.Msg, ce.Details)
		return
	}
	var ue *relay.UpstreamError
	if errors.As(err, &ue) {
		writeJSONErrorDetails(w, status, "Failed to connect to "+ue.Provider+". Check the endpoint and model settings.", ue.Err.Error())
		return
	}
	writeJSONError(w, status, err.Error())
}
