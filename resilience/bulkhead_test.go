package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBulkheadRejectsWhenFull(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "speech", MaxConcurrent: 1})

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Execute(context.Background(), func(_ context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	if got := b.InFlight(); got != 1 {
		t.Fatalf("expected 1 in flight, got %d", got)
	}

	err := b.Execute(context.Background(), func(_ context.Context) error { return nil })
	if !errors.Is(err, ErrBulkheadFull) {
		t.Fatalf("expected ErrBulkheadFull, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if got := b.InFlight(); got != 0 {
		t.Fatalf("expected slot released, got %d in flight", got)
	}
}

func TestBulkheadWaitTimeout(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "forms", MaxConcurrent: 1, MaxWait: 10 * time.Millisecond})

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func(_ context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	err := b.Execute(context.Background(), func(_ context.Context) error { return nil })
	if !errors.Is(err, ErrBulkheadTimeout) {
		t.Fatalf("expected ErrBulkheadTimeout, got %v", err)
	}
	close(release)
}
