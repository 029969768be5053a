package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	xoauth2 "golang.org/x/oauth2"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodySize    = 1 << 20
)

// HTTPClient implements Client over net/http.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	userAgent string
}

var _ Client = (*HTTPClient)(nil)

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) {
		h.client = c
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(h *HTTPClient) {
		h.userAgent = ua
	}
}

// NewHTTPClient creates a client resolving relative endpoints against baseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	h := &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Do sends req. An *http.Client stored in ctx under xoauth2.HTTPClient takes
// precedence over the configured one.
func (h *HTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := h.build(ctx, req)
	if err != nil {
		return nil, err
	}

	client := h.client
	if c, ok := ctx.Value(xoauth2.HTTPClient).(*http.Client); ok && c != nil {
		client = c
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "[HTTPClient.Do] %s %s", httpReq.Method, httpReq.URL.Redacted())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPClient.Do] read body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
	if d := resp.Header.Get("Date"); d != "" {
		if t, err := http.ParseTime(d); err == nil {
			out.Date = &t
		}
	}
	return out, nil
}

func (h *HTTPClient) build(ctx context.Context, req *Request) (*http.Request, error) {
	target, err := ResolveURL(h.baseURL, req.Endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPClient.build]")
	}

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	var body io.Reader
	contentType := ""
	switch req.Encoding {
	case EncodingQuery:
		if len(req.Params) > 0 {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + req.Params.Encode()
		}
	case EncodingJSON:
		flat := make(map[string]string, len(req.Params))
		for k := range req.Params {
			flat[k] = req.Params.Get(k)
		}
		b, err := json.Marshal(flat)
		if err != nil {
			return nil, errors.Wrap(err, "[HTTPClient.build] encode json")
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	default:
		body = strings.NewReader(req.Params.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPClient.build] new request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if h.userAgent != "" {
		httpReq.Header.Set("User-Agent", h.userAgent)
	}
	for k, values := range req.Header {
		httpReq.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), values...)
	}
	return httpReq, nil
}
