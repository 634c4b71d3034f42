package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/logger"
)

func newTestExecutor(t *testing.T, cfg ExecutorConfig) *Executor {
	t.Helper()
	reg := NewBreakerRegistry(CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		ResetTimeout:     time.Hour,
	})
	return NewExecutor(cfg, reg, logger.NewDefault("test"))
}

func fastExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Retry: RetryConfig{
			MaxAttempts:       2,
			InitialDelay:      time.Millisecond,
			MaxDelay:          time.Millisecond,
			BackoffMultiplier: 1.0,
		},
		CallTimeout: time.Second,
	}
}

func TestExecutePrimarySuccess(t *testing.T) {
	ex := newTestExecutor(t, fastExecutorConfig())

	out, err := Execute(context.Background(), ex, "schemes",
		func(_ context.Context) (string, error) { return "primary", nil },
		func(_ context.Context) (string, error) { return "fallback", nil },
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Value != "primary" || out.Path != PathPrimary {
		t.Fatalf("got %q via %s", out.Value, out.Path)
	}

	m := ex.Metrics()
	if m.TotalRequests != 1 || m.PrimarySuccesses != 1 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestExecuteFallsBackOnExhaustion(t *testing.T) {
	ex := newTestExecutor(t, fastExecutorConfig())

	primaryCalls := 0
	out, err := Execute(context.Background(), ex, "schemes",
		func(_ context.Context) (string, error) {
			primaryCalls++
			return "", errors.New("connection refused")
		},
		func(_ context.Context) (string, error) { return "cached list", nil },
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Value != "cached list" || out.Path != PathFallback {
		t.Fatalf("got %q via %s", out.Value, out.Path)
	}
	if primaryCalls != 2 {
		t.Fatalf("expected 2 primary attempts, got %d", primaryCalls)
	}

	m := ex.Metrics()
	if m.PrimaryFailures != 1 || m.FallbackSuccesses != 1 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestExecuteNoFallbackPropagatesError(t *testing.T) {
	ex := newTestExecutor(t, fastExecutorConfig())

	wantErr := errors.New("connection reset")
	_, err := Execute[string](context.Background(), ex, "forms",
		func(_ context.Context) (string, error) { return "", wantErr },
		nil,
	)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected primary error, got %v", err)
	}
}

func TestExecuteFallbackFailureCounted(t *testing.T) {
	ex := newTestExecutor(t, fastExecutorConfig())

	fbErr := errors.New("fallback store empty")
	_, err := Execute[string](context.Background(), ex, "forms",
		func(_ context.Context) (string, error) { return "", errors.New("connection refused") },
		func(_ context.Context) (string, error) { return "", fbErr },
	)
	if !errors.Is(err, fbErr) {
		t.Fatalf("expected fallback error, got %v", err)
	}
	if m := ex.Metrics(); m.FallbackFailures != 1 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestExecuteOpenBreakerSkipsRetries(t *testing.T) {
	reg := NewBreakerRegistry(CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		ResetTimeout:     time.Hour,
	})
	ex := NewExecutor(fastExecutorConfig(), reg, logger.NewDefault("test"))

	// Trip the breaker for the service.
	_ = reg.Get("speech").Execute(context.Background(), failing)

	calls := 0
	out, err := Execute(context.Background(), ex, "speech",
		func(_ context.Context) (string, error) {
			calls++
			return "", errors.New("connection refused")
		},
		func(_ context.Context) (string, error) { return "degraded", nil },
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 {
		t.Fatalf("open breaker must block the primary, got %d calls", calls)
	}
	if out.Path != PathFallback {
		t.Fatalf("expected fallback path, got %s", out.Path)
	}
}

func TestExecuteTiered(t *testing.T) {
	ex := newTestExecutor(t, fastExecutorConfig())
	ctx := context.Background()

	out, err := ExecuteTiered(ctx, ex, "speech",
		func(_ context.Context) (string, error) { return "", errors.New("connection refused") },
		func(_ context.Context) (string, error) { return "secondary ok", nil },
		func(_ context.Context) (string, error) { return "fallback", nil },
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Value != "secondary ok" || out.Path != PathSecondary {
		t.Fatalf("got %q via %s", out.Value, out.Path)
	}

	out, err = ExecuteTiered(ctx, ex, "speech",
		func(_ context.Context) (string, error) { return "", errors.New("connection refused") },
		func(_ context.Context) (string, error) { return "", errors.New("connection reset") },
		func(_ context.Context) (string, error) { return "fallback", nil },
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Value != "fallback" || out.Path != PathFallback {
		t.Fatalf("got %q via %s", out.Value, out.Path)
	}
}

func TestExecuteTieredRecordsSecondaryMetrics(t *testing.T) {
	ex := newTestExecutor(t, fastExecutorConfig())
	ctx := context.Background()

	out, err := ExecuteTiered(ctx, ex, "speech",
		func(_ context.Context) (string, error) { return "", errors.New("connection refused") },
		func(_ context.Context) (string, error) { return "cached transcript", nil },
		nil,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Path != PathSecondary {
		t.Fatalf("expected secondary path, got %s", out.Path)
	}
	m := ex.Metrics()
	if m.SecondarySuccesses != 1 || m.SecondaryFailures != 0 {
		t.Fatalf("secondary success not counted: %+v", m)
	}

	_, _ = ExecuteTiered(ctx, ex, "speech",
		func(_ context.Context) (string, error) { return "", errors.New("connection refused") },
		func(_ context.Context) (string, error) { return "", errors.New("connection reset") },
		func(_ context.Context) (string, error) { return "fallback", nil },
	)
	m = ex.Metrics()
	if m.SecondaryFailures != 1 {
		t.Fatalf("secondary failure not counted: %+v", m)
	}
	if m.AvgLatencyMs < 0 {
		t.Fatalf("negative average latency: %f", m.AvgLatencyMs)
	}
}

func TestExecutorAvgLatency(t *testing.T) {
	ex := newTestExecutor(t, fastExecutorConfig())

	for i := 0; i < 3; i++ {
		_, _ = Execute(context.Background(), ex, "tracking",
			func(_ context.Context) (int, error) { return i, nil }, nil)
	}
	m := ex.Metrics()
	if m.TotalRequests != 3 {
		t.Fatalf("expected 3 requests, got %d", m.TotalRequests)
	}
	if m.AvgLatencyMs < 0 {
		t.Fatalf("negative average latency: %f", m.AvgLatencyMs)
	}
}

func TestExecutorBulkheadLimitsConcurrency(t *testing.T) {
	cfg := fastExecutorConfig()
	cfg.MaxConcurrent = 1
	ex := newTestExecutor(t, cfg)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_, _ = Execute(context.Background(), ex, "documents",
			func(_ context.Context) (string, error) {
				close(started)
				<-release
				return "slow", nil
			}, nil)
		close(done)
	}()

	<-started
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := Execute(ctx, ex, "documents",
		func(_ context.Context) (string, error) { return "fast", nil }, nil)
	if err == nil {
		t.Fatal("expected the bulkhead to reject or time out the second call")
	}

	close(release)
	<-done
}
