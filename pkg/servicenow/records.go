package servicenow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Record is a single table row keyed by field name.
type Record map[string]any

// ID returns the row's sys_id.
func (r Record) ID() string { return r.field("sys_id") }

// Number returns the human-facing record number (e.g. CHG0000001).
func (r Record) Number() string { return r.field("number") }

func (r Record) field(name string) string {
	if v, ok := r[name].(string); ok {
		return v
	}
	return ""
}

// TableResponse is the envelope returned by list reads.
type TableResponse struct {
	Result []Record `json:"result"`
}

// ErrorResponse is the envelope ServiceNow uses for API errors.
type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	} `json:"error"`
}

// DecodeRecords extracts rows from a successful response. Reads return a list
// under "result"; creates return a single object.
func DecodeRecords(resp *Response) ([]Record, error) {
	if resp == nil {
		return nil, errors.New("decode records: nil response")
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	raw := bytes.TrimSpace(envelope.Result)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '[' {
		var list []Record
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode record list: %w", err)
		}
		return list, nil
	}

	var single Record
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return []Record{single}, nil
}

// DecodeError extracts the API error message from a StatusError's body, if any.
func DecodeError(err error) (ErrorResponse, bool) {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Response == nil {
		return ErrorResponse{}, false
	}
	var out ErrorResponse
	if json.Unmarshal(statusErr.Response.Body, &out) != nil || out.Error.Message == "" {
		return ErrorResponse{}, false
	}
	return out, true
}
