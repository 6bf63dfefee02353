package mvc

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request is a simulated inbound HTTP request. Path keeps its percent-encoding; route
// matching decodes each segment once.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// RequestSource is implemented by framework contexts that can describe their request
type RequestSource interface {
	Method() string
	// Path returns the escaped request path
	Path() string
	QueryParams() url.Values
	Headers() http.Header
	Body() ([]byte, error)
}

// NewRequest creates a request for a method and a target such as "/items/5?sort=asc"
func NewRequest(method, target string) (*Request, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid request target '%s': %w", target, err)
	}
	return requestFromURL(method, u), nil
}

// MustNewRequest is NewRequest that panics on error
func MustNewRequest(method, target string) *Request {
	r, err := NewRequest(method, target)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRequestFromURL creates a GET request for a parsed URL
func NewRequestFromURL(u *url.URL) *Request {
	return requestFromURL(http.MethodGet, u)
}

func requestFromURL(method string, u *url.URL) *Request {
	if method == "" {
		method = http.MethodGet
	}
	return &Request{
		Method: strings.ToUpper(method),
		Path:   u.EscapedPath(),
		Query:  u.Query(),
		Header: make(http.Header),
	}
}

// FromHTTPRequest snapshots an *http.Request. The body is read and restored.
func FromHTTPRequest(r *http.Request) (*Request, error) {
	req := requestFromURL(r.Method, r.URL)
	req.Header = r.Header.Clone()
	if r.Body != nil && r.Body != http.NoBody {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		req.Body = body
	}
	return req, nil
}

// FromSource snapshots a framework request
func FromSource(src RequestSource) (*Request, error) {
	body, err := src.Body()
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	method := src.Method()
	if method == "" {
		method = http.MethodGet
	}
	header := src.Headers()
	if header == nil {
		header = make(http.Header)
	}
	query := src.QueryParams()
	if query == nil {
		query = make(url.Values)
	}
	return &Request{
		Method: strings.ToUpper(method),
		Path:   src.Path(),
		Query:  query,
		Header: header,
		Body:   body,
	}, nil
}

// Clone returns a deep copy of the request
func (r *Request) Clone() *Request {
	clone := *r
	clone.Query = make(url.Values, len(r.Query))
	for k, v := range r.Query {
		clone.Query[k] = append([]string(nil), v...)
	}
	clone.Header = r.Header.Clone()
	if clone.Header == nil {
		clone.Header = make(http.Header)
	}
	clone.Body = append([]byte(nil), r.Body...)
	return &clone
}

// CanonicalPath returns the request path in canonical form
func (r *Request) CanonicalPath() string {
	return CanonicalPath(r.Path)
}

// Target returns the path with its query string
func (r *Request) Target() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

// QueryMap returns typed accessors over the query string
func (r *Request) QueryMap() QueryMap {
	return NewQueryMap(r.Query)
}

// ContentType returns the media type of the body without parameters
func (r *Request) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// HasJSONBody reports whether the request carries a JSON body
func (r *Request) HasJSONBody() bool {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return false
	}
	ct := r.ContentType()
	return ct == "" || ct == "application/json" || strings.HasSuffix(ct, "+json")
}
