package upstream

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	text := http.StatusText(e.StatusCode)
	if text == "" {
		text = "HTTP " + strconv.Itoa(e.StatusCode)
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return text
	}
	return text + " - " + body
}

// IsStatus reports whether err is an upstream HTTP status error and returns it.
func IsStatus(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
