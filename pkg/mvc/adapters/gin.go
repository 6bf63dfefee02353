package adapters

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/ivaylokenov/mytested/pkg/mvc"
)

// GinRequest implements mvc.RequestSource for Gin
type GinRequest struct {
	context *gin.Context
}

// NewGinRequest wraps a gin context
func NewGinRequest(c *gin.Context) *GinRequest {
	return &GinRequest{context: c}
}

func (r *GinRequest) Method() string {
	return r.context.Request.Method
}

func (r *GinRequest) Path() string {
	return r.context.Request.URL.EscapedPath()
}

func (r *GinRequest) QueryParams() url.Values {
	return r.context.Request.URL.Query()
}

func (r *GinRequest) Headers() http.Header {
	return r.context.Request.Header.Clone()
}

// Body reads the request body and restores it for the handler
func (r *GinRequest) Body() ([]byte, error) {
	return readBody(r.context.Request)
}

// GinResolver resolves every request against table before the next handler runs.
// Read the result with GinResolved.
func GinResolver(table *mvc.RouteTable) gin.HandlerFunc {
	return func(c *gin.Context) {
		resolved, err := resolve(table, NewGinRequest(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Set(ResolvedKey, resolved)
		c.Next()
	}
}

// GinResolved returns the resolution stored by GinResolver
func GinResolved(c *gin.Context) (*mvc.ResolvedRouteContext, bool) {
	value, exists := c.Get(ResolvedKey)
	if !exists {
		return nil, false
	}
	resolved, ok := value.(*mvc.ResolvedRouteContext)
	return resolved, ok
}
