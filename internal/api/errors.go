package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnknownKind is returned before any request for a kind other than deposit or withdrawal.
	ErrUnknownKind = errors.New("unknown payment kind")
)

// Error is returned for every failed call: HTTP error statuses, transport failures
// and undecodable responses. Status is 0 when no response was received.
type Error struct {
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("api error %d: %v", e.Status, e.Err)
	default:
		return fmt.Sprintf("api error %d: %s", e.Status, http.StatusText(e.Status))
	}
}

func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return e.Err
}

// Message returns the server-supplied detail when present, otherwise fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// parseDetail extracts the human readable reason from an error body.
// Accepts {"detail": "..."}, {"error": "..."} and {"message": "..."}.
func parseDetail(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, key := range []string{"detail", "error", "message"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}

	return ""
}
