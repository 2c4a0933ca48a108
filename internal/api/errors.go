package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error is a non-2xx response from the Modern Mail API. Message holds the
// server-supplied error text when the body carried one.
type Error struct {
	StatusCode int
	Message    string
	Method     string
	Path       string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status %d on %s %s", e.StatusCode, e.Method, e.Path)
}

// errorBody matches the error payloads the server emits. The message field
// is the primary convention; error is kept as a fallback for older handlers.
type errorBody struct {
	Message string `json:"message"`
	Err     string `json:"error"`
}

// decodeError builds an *Error from a non-2xx response body.
func decodeError(status int, method, path string, body []byte) error {
	apiErr := &Error{
		StatusCode: status,
		Method:     method,
		Path:       path,
	}

	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		if eb.Message != "" {
			apiErr.Message = eb.Message
		} else if eb.Err != "" {
			apiErr.Message = eb.Err
		}
	}

	return apiErr
}

// ServerMessage extracts the server-supplied message from err, if err is an
// API error that carried one. It returns "" for transport and parse errors.
func ServerMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
