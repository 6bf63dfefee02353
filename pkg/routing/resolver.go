package routing

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/ivaylokenov/mytested/pkg/mvc"
)

// NewRequest turns a route target into a request. A target is a path string, *url.URL,
// *mvc.Request, *http.Request, mvc.RequestSource or func(*RequestBuilder).
func NewRequest(target any) (*mvc.Request, error) {
	switch v := target.(type) {
	case string:
		return mvc.NewRequest(http.MethodGet, v)
	case *url.URL:
		return mvc.NewRequestFromURL(v), nil
	case *mvc.Request:
		return v.Clone(), nil
	case *http.Request:
		return mvc.FromHTTPRequest(v)
	case mvc.RequestSource:
		return mvc.FromSource(v)
	case func(*RequestBuilder):
		b := NewRequestBuilder()
		v(b)
		return b.Build()
	default:
		return nil, fmt.Errorf("unsupported route target %T", target)
	}
}

// Resolve resolves a route target against table
func Resolve(table *mvc.RouteTable, target any) (*mvc.ResolvedRouteContext, error) {
	req, err := NewRequest(target)
	if err != nil {
		return nil, err
	}
	return table.Resolve(req), nil
}

// ResolveValues resolves explicit route values against table
func ResolveValues(table *mvc.RouteTable, values map[string]any) *mvc.ResolvedRouteContext {
	return table.ResolveValues(mvc.NewRouteValues(values))
}
