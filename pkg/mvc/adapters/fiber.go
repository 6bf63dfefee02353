package adapters

import (
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/ivaylokenov/mytested/pkg/mvc"
)

// FiberRequest implements mvc.RequestSource for Fiber v2. Fiber reuses its buffers once the
// handler returns, so every accessor copies.
type FiberRequest struct {
	context *fiber.Ctx
}

// NewFiberRequest wraps a fiber context
func NewFiberRequest(c *fiber.Ctx) *FiberRequest {
	return &FiberRequest{context: c}
}

func (r *FiberRequest) Method() string {
	return r.context.Method()
}

func (r *FiberRequest) Path() string {
	return string(r.context.Request().URI().PathOriginal())
}

func (r *FiberRequest) QueryParams() url.Values {
	values := make(url.Values)
	r.context.Context().QueryArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	return values
}

func (r *FiberRequest) Headers() http.Header {
	header := make(http.Header)
	r.context.Request().Header.VisitAll(func(key, value []byte) {
		header.Add(string(key), string(value))
	})
	return header
}

func (r *FiberRequest) Body() ([]byte, error) {
	body := r.context.Body()
	if len(body) == 0 {
		return nil, nil
	}
	return append([]byte(nil), body...), nil
}

// FiberResolver resolves every request against table before the next handler runs.
// Read the result with FiberResolved.
func FiberResolver(table *mvc.RouteTable) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resolved, err := resolve(table, NewFiberRequest(c))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		c.Locals(ResolvedKey, resolved)
		return c.Next()
	}
}

// FiberResolved returns the resolution stored by FiberResolver
func FiberResolved(c *fiber.Ctx) (*mvc.ResolvedRouteContext, bool) {
	resolved, ok := c.Locals(ResolvedKey).(*mvc.ResolvedRouteContext)
	return resolved, ok
}
