package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/logger"
)

const slowRequestThreshold = 500 * time.Millisecond

// RequestLogger logs every completed request with method, path, status and
// duration. Probe traffic under /health is skipped so liveness checks do
// not flood the log.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbePath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			elapsed := time.Since(start)

			fields := map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      sw.status,
				"duration_ms": elapsed.Milliseconds(),
			}
			if id := r.Header.Get("X-Request-Id"); id != "" {
				fields["request_id"] = id
			}
			if elapsed > slowRequestThreshold {
				fields["slow"] = true
			}

			switch {
			case sw.status >= 500:
				log.Error("request completed", fields)
			case sw.status >= 400:
				log.Warn("request completed", fields)
			default:
				log.Debug("request completed", fields)
			}
		})
	}
}

func isProbePath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}
