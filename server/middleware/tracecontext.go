package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/tracing"
)

// ContextKeyTrace is the Gin context key holding the parsed trace context.
const ContextKeyTrace = "trace_context"

// TraceContext parses the inbound X-Trace-Context header and stores the
// result in the Gin context. A missing or malformed header is ignored; the
// handler will start a fresh trace instead.
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tc := tracing.ExtractTraceContext(c.GetHeader(tracing.HeaderName)); tc != nil {
			c.Set(ContextKeyTrace, tc)
		}
		c.Next()
	}
}

// TraceFromContext returns the trace context extracted by TraceContext,
// or nil when the request carried none.
func TraceFromContext(c *gin.Context) *tracing.TraceContext {
	if v, ok := c.Get(ContextKeyTrace); ok {
		if tc, ok := v.(*tracing.TraceContext); ok {
			return tc
		}
	}
	return nil
}
