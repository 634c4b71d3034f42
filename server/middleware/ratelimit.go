package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig configures per-client request throttling.
type RateLimitConfig struct {
	// RequestsPerMinute caps requests per key over a sliding one-minute
	// window. Zero or negative falls back to 60.
	RequestsPerMinute int
	// KeyFunc derives the throttling key. Defaults to the client IP.
	KeyFunc func(*gin.Context) string
}

// RateLimit rejects requests over the per-key budget with 429. The window
// slides: each request only competes with requests from the last minute.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}

	rl := &slidingWindow{
		seen:  make(map[string][]time.Time),
		limit: cfg.RequestsPerMinute,
	}
	go rl.sweep()

	return func(c *gin.Context) {
		if !rl.allow(cfg.KeyFunc(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

type slidingWindow struct {
	mu    sync.Mutex
	seen  map[string][]time.Time
	limit int
}

func (rl *slidingWindow) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	recent := sinceCutoff(rl.seen[key], now.Add(-time.Minute))
	if len(recent) >= rl.limit {
		rl.seen[key] = recent
		return false
	}
	rl.seen[key] = append(recent, now)
	return true
}

// sweep drops idle keys so one-off clients do not accumulate forever.
func (rl *slidingWindow) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-time.Minute)
		for key, times := range rl.seen {
			if recent := sinceCutoff(times, cutoff); len(recent) == 0 {
				delete(rl.seen, key)
			} else {
				rl.seen[key] = recent
			}
		}
		rl.mu.Unlock()
	}
}

func sinceCutoff(times []time.Time, cutoff time.Time) []time.Time {
	var out []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			out = append(out, t)
		}
	}
	return out
}
