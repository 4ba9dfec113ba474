// Package servicenow is a small client for the ServiceNow Table API, scoped to
// reading and creating rows of a single table (change requests by default).
package servicenow

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/snow-change-connector/pkg/httpclient"
)

const (
	// DefaultTable is the change request table.
	DefaultTable = "change_request"

	// readOneQuery limits reads to a single record.
	readOneQuery = "sysparm_limit=1"

	defaultTimeout = 15 * time.Second
)

// Options is the connection configuration. It is copied into the Connector
// and never modified afterwards.
type Options struct {
	URL      string
	Username string
	Password string
	Table    string
}

// CallOptions is built fresh for every operation.
type CallOptions struct {
	Options
	Method string
	Query  string
	Body   any
}

// Response is the response object handed to callers on success and carried
// by *StatusError on a bad status code.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// Connector issues table API calls for one configured table.
type Connector struct {
	opts   Options
	client httpclient.Client
	log    Logger
}

// NewConnector creates a connector. A nil client falls back to a resty-backed
// client and a nil logger discards diagnostics.
func NewConnector(opts Options, client httpclient.Client, log Logger) *Connector {
	opts.URL = strings.TrimSpace(opts.URL)
	opts.Table = strings.TrimSpace(opts.Table)
	if client == nil {
		client = httpclient.NewRestyClient(defaultTimeout)
	}
	return &Connector{
		opts:   opts,
		client: client,
		log:    ensureLogger(log),
	}
}

// Options returns a copy of the connection configuration.
func (c *Connector) Options() Options { return c.opts }

// Get reads one record from the configured table.
func (c *Connector) Get(ctx context.Context) (*Response, error) {
	return c.List(ctx, readOneQuery)
}

// List reads records from the configured table using a raw query string.
func (c *Connector) List(ctx context.Context, query string) (*Response, error) {
	call := c.callOptions(http.MethodGet)
	call.Query = query
	return c.sendRequest(ctx, call)
}

// Post creates a record in the configured table. record is sent as JSON.
func (c *Connector) Post(ctx context.Context, record any) (*Response, error) {
	call := c.callOptions(http.MethodPost)
	call.Body = record
	return c.sendRequest(ctx, call)
}

func (c *Connector) callOptions(method string) CallOptions {
	return CallOptions{Options: c.opts, Method: method}
}

// sendRequest issues exactly one HTTP call and classifies its outcome.
func (c *Connector) sendRequest(ctx context.Context, call CallOptions) (*Response, error) {
	if call.Table == "" {
		c.log.ErrorObj("servicenow request rejected", "servicenow_error", map[string]any{
			"error": ErrMissingTable.Error(),
		})
		return nil, ErrMissingTable
	}

	uri := BuildURI(call.Table, call.Query)
	c.log.DebugObj("servicenow request options", "servicenow_request", map[string]any{
		"method":   call.Method,
		"base_url": call.URL,
		"uri":      uri,
		"username": call.Username,
		"password": redact(call.Password),
	})

	req := httpclient.Request{
		Method:   call.Method,
		URL:      strings.TrimRight(call.URL, "/") + uri,
		Username: call.Username,
		Password: call.Password,
		Headers:  map[string]string{"Accept": "application/json"},
	}
	if call.Body != nil {
		req.Body = call.Body
		req.Headers["Content-Type"] = "application/json"
	}

	raw, err := c.client.Do(ctx, req)
	return classify(c.log, err, toResponse(raw))
}

func toResponse(raw httpclient.Response) *Response {
	if raw == nil {
		return nil
	}
	return &Response{
		StatusCode: raw.StatusCode(),
		Status:     raw.Status(),
		Header:     raw.Header(),
		Body:       raw.Body(),
	}
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}
