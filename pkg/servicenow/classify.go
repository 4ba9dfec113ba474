package servicenow

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	hibernationMarker = []byte("Instance Hibernating page")
	htmlOpenTag       = []byte("<html>")
)

// Classify turns a raw transport outcome into the connector's (data, error)
// pair. Exactly one of the returned values is non-nil.
func Classify(err error, resp *Response) (*Response, error) {
	return classify(noopLogger{}, err, resp)
}

// classify checks, in order: transport error, non-2xx status, hibernating
// instance. The hibernation check requires status 200 exactly.
func classify(log Logger, err error, resp *Response) (*Response, error) {
	switch {
	case err != nil:
		log.ErrorObj("servicenow transport error", "servicenow_error", map[string]any{
			"error": err.Error(),
		})
		return nil, err
	case resp == nil:
		log.ErrorObj("servicenow transport error", "servicenow_error", map[string]any{
			"error": ErrNoResponse.Error(),
		})
		return nil, ErrNoResponse
	case !isSuccessStatus(resp.StatusCode):
		log.ErrorObj("servicenow bad response code", "servicenow_response", map[string]any{
			"status_code": resp.StatusCode,
			"status":      resp.Status,
			"body":        bodySnippet(resp.Body),
		})
		return nil, &StatusError{Response: resp}
	case isHibernating(resp):
		log.ErrorObj(ErrHibernating.Error(), "servicenow_hibernation", map[string]any{
			"page_title": hibernationTitle(resp.Body),
		})
		return nil, ErrHibernating
	default:
		return resp, nil
	}
}

func isSuccessStatus(code int) bool {
	return code >= 200 && code <= 299
}

func isHibernating(resp *Response) bool {
	return bytes.Contains(resp.Body, hibernationMarker) &&
		bytes.Contains(resp.Body, htmlOpenTag) &&
		resp.StatusCode == http.StatusOK
}

// hibernationTitle pulls the <title> out of the maintenance page for diagnostics.
func hibernationTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
