package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRestyClientSendsBasicAuthAndMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			t.Fatalf("unexpected basic auth %q/%q ok=%v", user, pass, ok)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Fatalf("missing Accept header, got %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["short_description"] != "hello" {
			t.Fatalf("unexpected body %v", body)
		}
		w.Header().Set("X-Test", "1")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":{}}`))
	}))
	defer srv.Close()

	client := NewRestyClient(2 * time.Second)
	resp, err := client.Do(context.Background(), Request{
		Method:   "post",
		URL:      srv.URL + "/api/now/table/change_request",
		Username: "admin",
		Password: "secret",
		Headers:  map[string]string{"Accept": "application/json"},
		Body:     map[string]string{"short_description": "hello"},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode())
	}
	if resp.Header().Get("X-Test") != "1" {
		t.Fatalf("response header not propagated")
	}
	if string(resp.Body()) != `{"result":{}}` {
		t.Fatalf("unexpected body %q", resp.Body())
	}
}

func TestRestyClientReturnsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewRestyClient(time.Second)
	resp, err := client.Do(context.Background(), Request{URL: url})
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if resp != nil {
		t.Fatalf("expected no response alongside transport error")
	}
}

func TestRestyClientDefaultsToGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", r.Method)
		}
		if r.URL.RawQuery != "sysparm_limit=1" {
			t.Fatalf("unexpected query %q", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := NewRestyClient(time.Second).Do(context.Background(), Request{URL: srv.URL + "/x?sysparm_limit=1"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode())
	}
}
