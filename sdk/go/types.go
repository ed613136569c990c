package sdk

import (
	"errors"
	"fmt"
)

// Standing is one row of a board, 1-indexed.
type Standing struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
}

// Result mirrors the outcome body returned by every board route. Business
// failures (unknown board, duplicate member, ...) come back as a Result with
// Success=false, not as an error.
type Result struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	Position  int        `json:"position,omitempty"`
	Standings []Standing `json:"standings,omitempty"`
	Boards    []string   `json:"boards,omitempty"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string         `json:"status"`
	Checks map[string]any `json:"checks"`
}

// APIError is a transport-level failure reported by the server: bad request
// parameters, auth, rate limiting or an unavailable store.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d): %s", e.Code, e.Status, e.Message)
}

var (
	ErrEmptyBoard       = errors.New("board name is required")
	ErrEmptyParticipant = errors.New("participant name is required")
)
