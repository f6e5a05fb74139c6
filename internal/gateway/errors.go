package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError reports a non-2xx response that did not carry a field-level
// validation payload.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("gateway returned status %d", e.Status)
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.Status, e.Body)
}

// ValidationError carries the per-field messages of a 422 response. Keys
// are request field names ("to", "from", "content"); values are the
// human-readable messages the gateway attached to each.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway rejected request: %s", e.Message)
	}
	return "gateway rejected request"
}

// Field returns the messages recorded for one request field, or nil.
func (e *ValidationError) Field(name string) []string {
	if e == nil {
		return nil
	}
	return e.Fields[name]
}

const maxErrorBody = 4 << 10

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode == http.StatusUnprocessableEntity {
		var payload struct {
			Message string              `json:"message"`
			Data    map[string][]string `json:"data"`
		}
		if err := json.Unmarshal(body, &payload); err == nil && len(payload.Data) > 0 {
			return &ValidationError{Message: payload.Message, Fields: payload.Data}
		}
	}

	return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
