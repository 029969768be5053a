// Package transport performs the HTTP exchanges of the authorization flow. The
// flow depends only on the Client interface.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Encoding selects how Request.Params are sent.
type Encoding int

const (
	// EncodingForm sends params as an application/x-www-form-urlencoded body.
	EncodingForm Encoding = iota
	// EncodingJSON sends params as a flat JSON object body.
	EncodingJSON
	// EncodingQuery appends params to the URL query.
	EncodingQuery
)

// Request is one HTTP call. Endpoint is absolute or relative to the client's base URL.
type Request struct {
	Method   string
	Endpoint string
	Params   url.Values
	Header   http.Header
	Encoding Encoding
}

// Bearer sets the Authorization header to a bearer token.
func (r *Request) Bearer(token string) *Request {
	if r.Header == nil {
		r.Header = http.Header{}
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// Response is a successful (2xx) HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Date is the server's Date header, nil when absent or unparseable.
	Date *time.Time
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Form parses an application/x-www-form-urlencoded body.
func (r *Response) Form() (url.Values, error) {
	return url.ParseQuery(strings.TrimSpace(string(r.Body)))
}

// IsForm reports whether the response declares a form-encoded body.
func (r *Response) IsForm() bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "text/plain")
}

// Client executes requests. Non-2xx responses are returned as *StatusError.
type Client interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// ResolveURL resolves endpoint against base. The base is treated as a directory
// so relative endpoints keep its path.
func ResolveURL(base, endpoint string) (string, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if base == "" {
		return "", fmt.Errorf("relative endpoint %q without a base URL", endpoint)
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	if !strings.HasSuffix(b.Path, "/") {
		b.Path += "/"
	}
	return b.ResolveReference(ref).String(), nil
}
