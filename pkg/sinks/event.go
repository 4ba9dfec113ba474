package sinks

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is the payload sent downstream for one table record.
type Event struct {
	Table     string         `json:"table"`
	Operation string         `json:"operation"`
	RecordID  string         `json:"record_id"`
	Number    string         `json:"number,omitempty"`
	Record    map[string]any `json:"record"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// NewEvent builds an Event stamped with the current UTC time.
func NewEvent(table, operation, recordID, number string, record map[string]any) Event {
	return Event{
		Table:     table,
		Operation: operation,
		RecordID:  recordID,
		Number:    number,
		Record:    record,
		FetchedAt: time.Now().UTC(),
	}
}

func (e Event) marshal() ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return payload, nil
}

// attributes are attached as message metadata by the queue-backed sinks.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"table":     e.Table,
		"operation": e.Operation,
		"record_id": e.RecordID,
	}
}
