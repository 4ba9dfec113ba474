package httpclient

import (
	"context"
	"net/http"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Status() string
	Header() http.Header
}

// Request describes a single outgoing call. URL must be absolute.
type Request struct {
	Method   string
	URL      string
	Username string
	Password string
	Headers  map[string]string
	Body     any
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}
