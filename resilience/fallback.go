package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/logger"
)

// ServedPath records which path ultimately served a request.
type ServedPath string

const (
	PathPrimary   ServedPath = "primary"
	PathSecondary ServedPath = "secondary"
	PathFallback  ServedPath = "fallback"
)

// ErrNoFallback is returned when the primary path fails and no fallback exists.
var ErrNoFallback = errors.New("primary failed and no fallback available")

// Operation is a single async call against a downstream collaborator.
type Operation[T any] func(context.Context) (T, error)

// Outcome is the result of a fallback-protected call.
type Outcome[T any] struct {
	Value   T
	Path    ServedPath
	Latency time.Duration
}

// ExecutorConfig configures the fallback executor.
type ExecutorConfig struct {
	// Retry applies to the primary (and secondary) path.
	Retry RetryConfig
	// CallTimeout bounds each individual attempt. 0 disables the per-call deadline.
	CallTimeout time.Duration
	// AlertThreshold is the primary-failure ratio above which an alert is
	// logged. Defaults to 0.2.
	AlertThreshold float64
	// MinRequestsForAlert avoids alerting on tiny samples. Defaults to 10.
	MinRequestsForAlert int64
	// MaxConcurrent caps in-flight calls per service. 0 disables the bulkhead.
	MaxConcurrent int
}

// DefaultExecutorConfig returns sensible defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Retry:               DefaultRetryConfig(),
		CallTimeout:         30 * time.Second,
		AlertThreshold:      0.2,
		MinRequestsForAlert: 10,
	}
}

// Metrics holds running counters for the executor.
type Metrics struct {
	TotalRequests      int64   `json:"totalRequests"`
	PrimarySuccesses   int64   `json:"primarySuccesses"`
	PrimaryFailures    int64   `json:"primaryFailures"`
	SecondarySuccesses int64   `json:"secondarySuccesses"`
	SecondaryFailures  int64   `json:"secondaryFailures"`
	FallbackSuccesses  int64   `json:"fallbackSuccesses"`
	FallbackFailures   int64   `json:"fallbackFailures"`
	AvgLatencyMs       float64 `json:"avgLatencyMs"`
}

// Executor composes the retry policy and per-service circuit breakers around
// a primary call, escalating to a guaranteed fallback when the primary is
// exhausted. It keeps running metrics and logs an alert when the primary
// failure ratio crosses the configured threshold.
type Executor struct {
	cfg      ExecutorConfig
	breakers *BreakerRegistry
	log      *logger.Logger

	mu           sync.Mutex
	metrics      Metrics
	latencySum   time.Duration
	latencyCount int64
	bulkheads  map[string]*Bulkhead
	alerting   bool
}

// NewExecutor creates a fallback executor over the given breaker registry.
func NewExecutor(cfg ExecutorConfig, breakers *BreakerRegistry, log *logger.Logger) *Executor {
	if cfg.AlertThreshold <= 0 {
		cfg.AlertThreshold = 0.2
	}
	if cfg.MinRequestsForAlert <= 0 {
		cfg.MinRequestsForAlert = 10
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	return &Executor{
		cfg:       cfg,
		breakers:  breakers,
		log:       log.WithComponent("fallback-executor"),
		bulkheads: make(map[string]*Bulkhead),
	}
}

// Metrics returns a copy of the current counters.
func (ex *Executor) Metrics() Metrics {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	m := ex.metrics
	if ex.latencyCount > 0 {
		m.AvgLatencyMs = float64(ex.latencySum.Milliseconds()) / float64(ex.latencyCount)
	}
	return m
}

// Execute attempts the primary call under the retry policy and the service's
// circuit breaker; on exhaustion it runs the fallback. The outcome records
// which path served the request and the end-to-end latency.
func Execute[T any](ctx context.Context, ex *Executor, service string, primary, fallback Operation[T]) (Outcome[T], error) {
	start := time.Now()

	holder := &box[T]{}
	err := ex.runProtected(ctx, service, wrap(primary, holder))
	if err == nil {
		out := Outcome[T]{Value: holder.v, Path: PathPrimary, Latency: time.Since(start)}
		ex.record(service, out.Path, true, out.Latency)
		return out, nil
	}
	ex.record(service, PathPrimary, false, time.Since(start))

	if fallback == nil {
		return Outcome[T]{Path: PathPrimary, Latency: time.Since(start)}, err
	}

	ex.log.Warn("primary path exhausted, serving fallback", logger.Fields(
		logger.FieldService, service,
		logger.FieldError, err.Error(),
	))

	fv, ferr := fallback(ctx)
	out := Outcome[T]{Value: fv, Path: PathFallback, Latency: time.Since(start)}
	ex.record(service, PathFallback, ferr == nil, out.Latency)
	if ferr != nil {
		return out, ferr
	}
	return out, nil
}

// ExecuteTiered tries the primary implementation, then a secondary
// (cheaper) tier, then the guaranteed fallback, short-circuiting at the
// first success.
func ExecuteTiered[T any](ctx context.Context, ex *Executor, service string, primary, secondary, fallback Operation[T]) (Outcome[T], error) {
	start := time.Now()

	holder := &box[T]{}
	err := ex.runProtected(ctx, service, wrap(primary, holder))
	if err == nil {
		out := Outcome[T]{Value: holder.v, Path: PathPrimary, Latency: time.Since(start)}
		ex.record(service, out.Path, true, out.Latency)
		return out, nil
	}
	ex.record(service, PathPrimary, false, time.Since(start))

	if secondary != nil {
		holder = &box[T]{}
		serr := ex.runProtected(ctx, service+":secondary", wrap(secondary, holder))
		if serr == nil {
			out := Outcome[T]{Value: holder.v, Path: PathSecondary, Latency: time.Since(start)}
			ex.record(service, out.Path, true, out.Latency)
			return out, nil
		}
		ex.record(service, PathSecondary, false, time.Since(start))
		err = serr
	}

	if fallback == nil {
		return Outcome[T]{Path: PathSecondary, Latency: time.Since(start)}, err
	}

	fv, ferr := fallback(ctx)
	out := Outcome[T]{Value: fv, Path: PathFallback, Latency: time.Since(start)}
	ex.record(service, PathFallback, ferr == nil, out.Latency)
	if ferr != nil {
		return out, ferr
	}
	return out, nil
}

type box[T any] struct{ v T }

func wrap[T any](op Operation[T], holder *box[T]) func(context.Context) error {
	return func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		holder.v = v
		return nil
	}
}

// runProtected executes fn under the bulkhead, retry policy, and the
// service's circuit breaker, with the per-call timeout applied to each
// attempt. A tripped breaker aborts remaining retries.
func (ex *Executor) runProtected(ctx context.Context, service string, fn func(context.Context) error) error {
	cb := ex.breakers.Get(service)

	retryCfg := ex.cfg.Retry
	baseRetryIf := retryCfg.RetryIf
	if baseRetryIf == nil {
		baseRetryIf = IsRetryable
	}
	retryCfg.RetryIf = func(err error) bool {
		if errors.Is(err, ErrCircuitOpen) {
			return false
		}
		return baseRetryIf(err)
	}

	attempt := func(ctx context.Context) error {
		return cb.Execute(ctx, func(ctx context.Context) error {
			if ex.cfg.CallTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, ex.cfg.CallTimeout)
				defer cancel()
			}
			return fn(ctx)
		})
	}

	if bh := ex.bulkhead(service); bh != nil {
		return bh.Execute(ctx, func(ctx context.Context) error {
			return RetryFunc(ctx, retryCfg, attempt)
		})
	}
	return RetryFunc(ctx, retryCfg, attempt)
}

func (ex *Executor) bulkhead(service string) *Bulkhead {
	if ex.cfg.MaxConcurrent <= 0 {
		return nil
	}
	ex.mu.Lock()
	defer ex.mu.Unlock()
	bh, ok := ex.bulkheads[service]
	if !ok {
		bh = NewBulkhead(BulkheadConfig{Name: service, MaxConcurrent: ex.cfg.MaxConcurrent})
		ex.bulkheads[service] = bh
	}
	return bh
}

func (ex *Executor) record(service string, path ServedPath, success bool, latency time.Duration) {
	ex.mu.Lock()
	defer ex.mu.Unlock()

	switch path {
	case PathPrimary:
		ex.metrics.TotalRequests++
		ex.latencySum += latency
		ex.latencyCount++
		if success {
			ex.metrics.PrimarySuccesses++
		} else {
			ex.metrics.PrimaryFailures++
		}
	case PathSecondary:
		ex.latencySum += latency
		ex.latencyCount++
		if success {
			ex.metrics.SecondarySuccesses++
		} else {
			ex.metrics.SecondaryFailures++
		}
	case PathFallback:
		if success {
			ex.metrics.FallbackSuccesses++
		} else {
			ex.metrics.FallbackFailures++
		}
	}

	if ex.metrics.TotalRequests >= ex.cfg.MinRequestsForAlert {
		ratio := float64(ex.metrics.PrimaryFailures) / float64(ex.metrics.TotalRequests)
		if ratio > ex.cfg.AlertThreshold && !ex.alerting {
			ex.alerting = true
			ex.log.Error("primary failure ratio above threshold", logger.Fields(
				logger.FieldService, service,
				"failure_ratio", ratio,
				"threshold", ex.cfg.AlertThreshold,
			))
		} else if ratio <= ex.cfg.AlertThreshold {
			ex.alerting = false
		}
	}
}
