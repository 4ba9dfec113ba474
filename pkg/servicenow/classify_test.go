package servicenow

import (
	"errors"
	"testing"
)

const hibernatingPage = `<html><head><title>Instance Hibernating page</title></head><body>Your instance is hibernating</body></html>`

type recordingLogger struct {
	noopLogger
	errors []string
}

func (r *recordingLogger) ErrorObj(msg, _ string, _ interface{}) { r.errors = append(r.errors, msg) }

func TestClassifyTransportErrorWins(t *testing.T) {
	transportErr := errors.New("dial tcp: connection refused")
	for _, resp := range []*Response{nil, {StatusCode: 200, Body: []byte("{}")}, {StatusCode: 500}} {
		data, err := Classify(transportErr, resp)
		if data != nil {
			t.Fatalf("expected no data, got %+v", data)
		}
		if err != transportErr {
			t.Fatalf("expected transport error verbatim, got %v", err)
		}
	}
}

func TestClassifyBadStatusReturnsResponse(t *testing.T) {
	for _, code := range []int{301, 404, 500, 199} {
		resp := &Response{StatusCode: code, Body: []byte("nope")}
		data, err := Classify(nil, resp)
		if data != nil {
			t.Fatalf("status %d: expected no data", code)
		}
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("status %d: expected *StatusError, got %v", code, err)
		}
		if statusErr.Response != resp {
			t.Fatalf("status %d: StatusError must carry the response object", code)
		}
	}
}

func TestClassifyHibernatingOn200(t *testing.T) {
	data, err := Classify(nil, &Response{StatusCode: 200, Body: []byte(hibernatingPage)})
	if data != nil {
		t.Fatalf("expected no data")
	}
	if !errors.Is(err, ErrHibernating) {
		t.Fatalf("expected ErrHibernating, got %v", err)
	}
	if err.Error() != "Service Now instance is hibernating" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestClassifyHibernationRequiresBothMarkers(t *testing.T) {
	bodies := []string{
		`{"result":[]}`,
		`Instance Hibernating page`,
		`<html><body>regular page</body></html>`,
	}
	for _, body := range bodies {
		resp := &Response{StatusCode: 200, Body: []byte(body)}
		data, err := Classify(nil, resp)
		if err != nil {
			t.Fatalf("body %q: unexpected error %v", body, err)
		}
		if data != resp {
			t.Fatalf("body %q: expected response as data", body)
		}
	}
}

func TestClassifyHibernationGatedOnExact200(t *testing.T) {
	resp := &Response{StatusCode: 201, Body: []byte(hibernatingPage)}
	data, err := Classify(nil, resp)
	if err != nil {
		t.Fatalf("expected no error for 201, got %v", err)
	}
	if data != resp {
		t.Fatalf("expected response as data")
	}
}

func TestClassifyHibernatingPageWithBadStatusIsBadStatus(t *testing.T) {
	_, err := Classify(nil, &Response{StatusCode: 503, Body: []byte(hibernatingPage)})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
}

func TestClassifyNilResponseWithoutError(t *testing.T) {
	data, err := Classify(nil, nil)
	if data != nil || !errors.Is(err, ErrNoResponse) {
		t.Fatalf("expected ErrNoResponse, got data=%v err=%v", data, err)
	}
}

func TestClassifyLogsEveryErrorBranch(t *testing.T) {
	log := &recordingLogger{}
	_, _ = classify(log, errors.New("boom"), nil)
	_, _ = classify(log, nil, &Response{StatusCode: 404})
	_, _ = classify(log, nil, &Response{StatusCode: 200, Body: []byte(hibernatingPage)})
	_, _ = classify(log, nil, &Response{StatusCode: 200, Body: []byte("{}")})

	if len(log.errors) != 3 {
		t.Fatalf("expected 3 error logs, got %d: %v", len(log.errors), log.errors)
	}
}

func TestHibernationTitle(t *testing.T) {
	if got := hibernationTitle([]byte(hibernatingPage)); got != "Instance Hibernating page" {
		t.Fatalf("hibernationTitle got %q", got)
	}
}
