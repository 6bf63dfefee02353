package adapters_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivaylokenov/mytested/pkg/mvc"
	"github.com/ivaylokenov/mytested/pkg/mvc/adapters"
	"github.com/ivaylokenov/mytested/pkg/routing"
)

func TestEchoRequest(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/Orders/Create?tag=a&tag=b", strings.NewReader(`{"item":"pen","qty":2}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	src := adapters.NewEchoRequest(c)
	assert.Equal(t, "POST", src.Method())
	assert.Equal(t, "/Orders/Create", src.Path())
	assert.Equal(t, []string{"a", "b"}, src.QueryParams()["tag"])
	assert.Equal(t, echo.MIMEApplicationJSON, src.Headers().Get("Content-Type"))

	body, err := src.Body()
	require.NoError(t, err)
	assert.JSONEq(t, `{"item":"pen","qty":2}`, string(body))

	restored, err := io.ReadAll(c.Request().Body)
	require.NoError(t, err)
	assert.Equal(t, string(body), string(restored), "body is restored for the handler")

	routing.ShouldMap(t, ordersTable(), adapters.NewEchoRequest(c)).
		To(routing.Call((*OrdersController).Create, Order{Item: "pen", Qty: 2})).
		ToValidModelState()
}

func TestEchoRequest_KeepsEscapedPath(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/tags/c%23%2Fd", nil), httptest.NewRecorder())

	src := adapters.NewEchoRequest(c)
	assert.Equal(t, "/tags/c%23%2Fd", src.Path())

	req, err := mvc.FromSource(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"tags", "c#/d"}, mvc.SplitPath(req.Path))
}

func TestEchoResolver(t *testing.T) {
	e := echo.New()
	e.Use(adapters.EchoResolver(ordersTable()))
	e.Any("/*", func(c echo.Context) error {
		resolved, ok := adapters.EchoResolved(c)
		if !ok {
			return c.String(http.StatusInternalServerError, "missing")
		}
		if !resolved.IsResolved {
			return c.String(http.StatusNotFound, resolved.UnresolvedError)
		}
		return c.String(http.StatusOK, resolved.ActionDescriptor.DisplayName())
	})

	tests := []struct {
		target string
		status int
		body   string
	}{
		{target: "/Orders/Details/3", status: http.StatusOK, body: "OrdersController.Details"},
		{target: "/Orders/Search?tag=x", status: http.StatusOK, body: "OrdersController.Search"},
		{target: "/Nope", status: http.StatusNotFound, body: "no route matched path /Nope"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestEchoResolved_Missing(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	resolved, ok := adapters.EchoResolved(c)
	assert.False(t, ok)
	assert.Nil(t, resolved)

	req, err := mvc.FromSource(adapters.NewEchoRequest(c))
	require.NoError(t, err)
	assert.Empty(t, req.Body)
}
