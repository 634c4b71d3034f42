package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware wraps an http.Handler. The gateway standardizes on this
// signature so the same chain can sit in front of the whole server handler,
// with GinWrap available for pieces that must run inside the engine.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares. The first argument is outermost: it sees the
// request first and the response last.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// GinWrap adapts a Middleware for a Gin engine chain. Middleware that
// substitutes its own http.ResponseWriter (RequestLogger does) should be
// applied at the server handler level instead, where nothing expects
// gin.Context.Writer underneath.
func GinWrap(mw Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			// Keep request mutations (added headers, derived context) visible
			// to the Gin handlers downstream.
			c.Request = r
			c.Next()
		})
		mw(next).ServeHTTP(c.Writer, c.Request)
	}
}
