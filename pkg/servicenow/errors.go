package servicenow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrHibernating is reported when the instance answers with its maintenance page.
	ErrHibernating = errors.New("Service Now instance is hibernating") //nolint:staticcheck // message is surfaced verbatim to operators

	// ErrMissingTable is returned before any request when no table is configured.
	ErrMissingTable = errors.New("servicenow table name is empty")

	// ErrNoResponse is reported when the transport returned neither a response nor an error.
	ErrNoResponse = errors.New("servicenow transport returned no response")
)

// StatusError carries the full response for a non-2xx answer.
type StatusError struct {
	Response *Response
}

func (e *StatusError) Error() string {
	if e == nil || e.Response == nil {
		return "bad response code"
	}
	return fmt.Sprintf("bad response code %d: %s", e.Response.StatusCode, bodySnippet(e.Response.Body))
}

// bodySnippet trims a response body down to something log-friendly.
func bodySnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "<empty>"
	}
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
