package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/util"
)

const defaultMaxBodySize = 10 * 1024 * 1024 // 10MB

// BodySizeLimit caps request bodies at a size given as "10MB", "512KB" and
// the like. Audio uploads arrive base64-encoded in JSON, so the cap has to
// leave room for the encoding overhead.
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}

// GinBodySizeLimit applies BodySizeLimit inside a Gin engine chain.
func GinBodySizeLimit(maxSize string) gin.HandlerFunc {
	return GinWrap(BodySizeLimit(maxSize))
}
