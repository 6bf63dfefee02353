package adapters

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/ivaylokenov/mytested/pkg/mvc"
)

// EchoRequest implements mvc.RequestSource for Echo v4
type EchoRequest struct {
	context echo.Context
}

// NewEchoRequest wraps an echo context
func NewEchoRequest(c echo.Context) *EchoRequest {
	return &EchoRequest{context: c}
}

func (r *EchoRequest) Method() string {
	return r.context.Request().Method
}

func (r *EchoRequest) Path() string {
	return r.context.Request().URL.EscapedPath()
}

func (r *EchoRequest) QueryParams() url.Values {
	return r.context.QueryParams()
}

func (r *EchoRequest) Headers() http.Header {
	return r.context.Request().Header.Clone()
}

// Body reads the request body and restores it for the handler
func (r *EchoRequest) Body() ([]byte, error) {
	return readBody(r.context.Request())
}

// EchoResolver resolves every request against table before the handler runs.
// Read the result with EchoResolved.
func EchoResolver(table *mvc.RouteTable) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			resolved, err := resolve(table, NewEchoRequest(c))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			c.Set(ResolvedKey, resolved)
			return next(c)
		}
	}
}

// EchoResolved returns the resolution stored by EchoResolver
func EchoResolved(c echo.Context) (*mvc.ResolvedRouteContext, bool) {
	resolved, ok := c.Get(ResolvedKey).(*mvc.ResolvedRouteContext)
	return resolved, ok
}
