package collector

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/samvad-hq/snow-change-connector/internal/domain"
	"github.com/samvad-hq/snow-change-connector/pkg/servicenow"
	"github.com/samvad-hq/snow-change-connector/pkg/sinks"
)

// fakeSender records events and can fail on one record id.
type fakeSender struct {
	mu      sync.Mutex
	events  []sinks.Event
	errOnID string
}

func (f *fakeSender) Send(_ context.Context, evt sinks.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if evt.RecordID == f.errOnID {
		return 0, errors.New("boom")
	}
	return 1, nil
}

// fakeDeduper tracks seen ids.
type fakeDeduper struct {
	mu      sync.Mutex
	seen    map[string]bool
	failID  string
	failErr error
}

func (f *fakeDeduper) SeenRecord(_, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.failID && f.failErr != nil {
		return false, f.failErr
	}
	return f.seen[id], nil
}

func (f *fakeDeduper) MarkRecord(_, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	f.seen[id] = true
	return nil
}

func response(body string) *servicenow.Response {
	return &servicenow.Response{StatusCode: 200, Body: []byte(body)}
}

func TestProcessForwardsFreshRecordsOnly(t *testing.T) {
	sender := &fakeSender{}
	deduper := &fakeDeduper{seen: map[string]bool{"old": true}}
	p := NewProcessor(sender, deduper, nil)

	n, err := p.Process(context.Background(), "change_request", domain.OperationGet,
		response(`{"result":[{"sys_id":"old"},{"sys_id":"new","number":"CHG0000002"}]}`))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if n != 1 || len(sender.events) != 1 {
		t.Fatalf("expected 1 forwarded record, got n=%d events=%d", n, len(sender.events))
	}
	evt := sender.events[0]
	if evt.RecordID != "new" || evt.Number != "CHG0000002" || evt.Operation != "get" || evt.Table != "change_request" {
		t.Fatalf("unexpected event %+v", evt)
	}
	if !deduper.seen["new"] {
		t.Fatalf("MarkRecord not called for forwarded record")
	}
}

func TestProcessAggregatesSendErrors(t *testing.T) {
	sender := &fakeSender{errOnID: "bad"}
	deduper := &fakeDeduper{}
	p := NewProcessor(sender, deduper, nil)

	n, err := p.Process(context.Background(), "change_request", domain.OperationPost,
		response(`{"result":{"sys_id":"bad"}}`))
	if err == nil || !strings.Contains(err.Error(), "bad") {
		t.Fatalf("expected error mentioning bad record, got %v", err)
	}
	if n != 0 {
		t.Fatalf("expected nothing forwarded, got %d", n)
	}
	if deduper.seen["bad"] {
		t.Fatalf("failed records must not be marked")
	}
}

func TestProcessRejectsUndecodableBody(t *testing.T) {
	p := NewProcessor(&fakeSender{}, nil, nil)
	if _, err := p.Process(context.Background(), "change_request", domain.OperationGet, response("<html>")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestProcessStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sender := &fakeSender{}
	n, err := NewProcessor(sender, nil, nil).Process(ctx, "change_request", domain.OperationGet,
		response(`{"result":[{"sys_id":"a"},{"sys_id":"b"}]}`))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n != 0 || len(sender.events) != 0 {
		t.Fatalf("nothing should be sent after cancellation")
	}
}

func TestFilterNewKeepsRecordsOnLookupError(t *testing.T) {
	deduper := &fakeDeduper{
		seen:    map[string]bool{"skip": true},
		failID:  "error",
		failErr: errors.New("lookup failed"),
	}
	p := NewProcessor(nil, deduper, nil)
	records := []domain.ChangeRecord{{ID: "keep"}, {ID: "skip"}, {ID: "error"}, {ID: ""}}

	filtered := p.filterNew(records)
	if len(filtered) != 3 {
		t.Fatalf("expected 3 records after filter, got %d", len(filtered))
	}
	if filtered[0].ID != "keep" || filtered[1].ID != "error" || filtered[2].ID != "" {
		t.Fatalf("unexpected filter result %#v", filtered)
	}
}
