package routing

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/ivaylokenov/mytested/pkg/mvc"
)

// RequestBuilder describes the request a route assertion resolves
type RequestBuilder struct {
	method string
	path   string
	query  url.Values
	header http.Header
	body   []byte
	err    error
}

// NewRequestBuilder creates a builder for a GET request to "/"
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{
		method: http.MethodGet,
		path:   "/",
		query:  make(url.Values),
		header: make(http.Header),
	}
}

// WithMethod sets the HTTP method
func (b *RequestBuilder) WithMethod(method string) *RequestBuilder {
	b.method = strings.ToUpper(method)
	return b
}

// WithPath sets the path. A query string in path is merged into the query.
func (b *RequestBuilder) WithPath(path string) *RequestBuilder {
	u, err := url.Parse(path)
	if err != nil {
		b.err = fmt.Errorf("invalid path '%s': %w", path, err)
		return b
	}
	b.path = u.EscapedPath()
	for k, vs := range u.Query() {
		b.query[k] = append(b.query[k], vs...)
	}
	return b
}

// WithQuery adds query string values
func (b *RequestBuilder) WithQuery(key string, values ...string) *RequestBuilder {
	b.query[key] = append(b.query[key], values...)
	return b
}

// WithHeader sets a header
func (b *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	b.header.Set(key, value)
	return b
}

// WithBody sets a raw body and its content type
func (b *RequestBuilder) WithBody(body []byte, contentType string) *RequestBuilder {
	b.body = body
	if contentType != "" {
		b.header.Set("Content-Type", contentType)
	}
	return b
}

// WithJSONBody serializes v as the JSON body
func (b *RequestBuilder) WithJSONBody(v any) *RequestBuilder {
	body, err := json.Marshal(v)
	if err != nil {
		b.err = fmt.Errorf("failed to serialize JSON body: %w", err)
		return b
	}
	return b.WithBody(body, "application/json")
}

// Build returns the described request
func (b *RequestBuilder) Build() (*mvc.Request, error) {
	if b.err != nil {
		return nil, b.err
	}
	return (&mvc.Request{
		Method: b.method,
		Path:   b.path,
		Query:  b.query,
		Header: b.header,
		Body:   b.body,
	}).Clone(), nil
}
