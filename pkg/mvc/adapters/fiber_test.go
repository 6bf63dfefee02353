package adapters_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/ivaylokenov/mytested/pkg/mvc/adapters"
	"github.com/ivaylokenov/mytested/pkg/routing"
)

func TestFiberRequest(t *testing.T) {
	app := fiber.New()

	fctx := &fasthttp.RequestCtx{}
	fctx.Request.SetRequestURI("/Orders/Search?tag=a&tag=b")
	fctx.Request.Header.SetMethod(fiber.MethodGet)
	fctx.Request.Header.Set("X-Trace", "abc")

	c := app.AcquireCtx(fctx)
	defer app.ReleaseCtx(c)

	src := adapters.NewFiberRequest(c)
	assert.Equal(t, "GET", src.Method())
	assert.Equal(t, "/Orders/Search", src.Path())
	assert.Equal(t, []string{"a", "b"}, src.QueryParams()["tag"])
	assert.Equal(t, "abc", src.Headers().Get("X-Trace"))

	body, err := src.Body()
	require.NoError(t, err)
	assert.Nil(t, body)

	routing.ShouldMap(t, ordersTable(), src).
		To(routing.Call((*OrdersController).Search, []string{"a", "b"}))
}

func TestFiberRequest_KeepsEscapedPath(t *testing.T) {
	app := fiber.New()

	fctx := &fasthttp.RequestCtx{}
	fctx.Request.SetRequestURI("/tags/c%23%2Fd?x=1")
	fctx.Request.Header.SetMethod(fiber.MethodGet)

	c := app.AcquireCtx(fctx)
	defer app.ReleaseCtx(c)

	assert.Equal(t, "/tags/c%23%2Fd", adapters.NewFiberRequest(c).Path())
}

func TestFiberRequest_Body(t *testing.T) {
	app := fiber.New()

	fctx := &fasthttp.RequestCtx{}
	fctx.Request.SetRequestURI("/Orders/Create")
	fctx.Request.Header.SetMethod(fiber.MethodPost)
	fctx.Request.Header.SetContentType(fiber.MIMEApplicationJSON)
	fctx.Request.SetBodyString(`{"item":"pen","qty":3}`)

	c := app.AcquireCtx(fctx)
	defer app.ReleaseCtx(c)

	src := adapters.NewFiberRequest(c)
	body, err := src.Body()
	require.NoError(t, err)
	assert.JSONEq(t, `{"item":"pen","qty":3}`, string(body))

	routing.ShouldMap(t, ordersTable(), src).
		To(routing.Call((*OrdersController).Create, Order{Item: "pen", Qty: 3})).
		ToValidModelState()
}

func TestFiberResolver(t *testing.T) {
	app := fiber.New()
	app.Use(adapters.FiberResolver(ordersTable()))
	app.All("/*", func(c *fiber.Ctx) error {
		resolved, ok := adapters.FiberResolved(c)
		if !ok {
			return c.Status(http.StatusInternalServerError).SendString("missing")
		}
		if !resolved.IsResolved {
			return c.Status(http.StatusNotFound).SendString(resolved.UnresolvedError)
		}
		return c.SendString(resolved.ActionDescriptor.DisplayName())
	})

	tests := []struct {
		method string
		target string
		body   string
		status int
		want   string
	}{
		{method: http.MethodGet, target: "/Orders/Details/3", status: http.StatusOK, want: "OrdersController.Details"},
		{method: http.MethodPost, target: "/Orders/Create", body: `{"item":"pen","qty":1}`, status: http.StatusOK, want: "OrdersController.Create"},
		{method: http.MethodGet, target: "/x/y/z/w", status: http.StatusNotFound, want: "no route matched path /x/y/z/w"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			got, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.want, string(got))
		})
	}
}
