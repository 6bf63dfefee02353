// Package adapters reads requests from echo, gin and fiber contexts so they can be resolved
// against an mvc.RouteTable, and provides middleware that resolves every live request.
package adapters

import (
	"bytes"
	"io"
	"net/http"

	"github.com/ivaylokenov/mytested/pkg/mvc"
)

// ResolvedKey is the context key the resolver middleware stores the resolution under
const ResolvedKey = "mvc.resolved"

// readBody reads an http.Request body and puts an equivalent reader back
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func resolve(table *mvc.RouteTable, src mvc.RequestSource) (*mvc.ResolvedRouteContext, error) {
	req, err := mvc.FromSource(src)
	if err != nil {
		return nil, err
	}
	return table.Resolve(req), nil
}
