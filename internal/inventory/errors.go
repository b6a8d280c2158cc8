package inventory

import (
	"errors"
	"net/http"
)

// requestError is a caller mistake mapped to 400.
type requestError struct{ msg string }

func (e requestError) Error() string { return e.msg }

func (e requestError) StatusCode() int { return http.StatusBadRequest }

var (
	// ErrModelRequired is returned when no model name was supplied.
	ErrModelRequired error = requestError{"model name is required"}
	// ErrInvalidAction is returned by Manage for actions other than pull and delete.
	ErrInvalidAction error = requestError{"invalid action"}
)

// IsRequestError reports whether err is a caller mistake rather than an
// upstream failure.
func IsRequestError(err error) bool {
	var re requestError
	return errors.As(err, &re)
}

// OpError wraps an upstream failure of one manage operation.
type OpError struct {
	Op    string
	Model string
	Err   error
}

func (e *OpError) Error() string { return "failed to " + e.Op + " model " + e.Model + ": " + e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

func (e *OpError) StatusCode() int { return http.StatusInternalServerError }
