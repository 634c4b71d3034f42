// Package tracing implements the gateway's distributed tracer: spans are
// created per operation, stitched across service boundaries through an
// opaque header token, and handed to a pluggable exporter when finished.
package tracing

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/logger"
)

// HeaderName is the HTTP header carrying the trace context token.
const HeaderName = "X-Trace-Context"

// TraceContext is the parsed form of the propagation token
// traceId:spanId:parentSpanId:flags.
type TraceContext struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
	Sampled      bool
}

// Tracer creates and tracks spans for one service. The span table is
// bounded by the age-based cleanup sweep.
type Tracer struct {
	serviceName string
	exporter    Exporter
	log         *logger.Logger

	mu    sync.Mutex
	spans map[string]*Span
}

// New creates a tracer. A nil exporter discards finished spans.
func New(serviceName string, exporter Exporter, log *logger.Logger) *Tracer {
	if exporter == nil {
		exporter = NopExporter{}
	}
	return &Tracer{
		serviceName: serviceName,
		exporter:    exporter,
		log:         log.WithComponent("tracer"),
		spans:       make(map[string]*Span),
	}
}

// StartTrace creates a root span with a fresh trace id.
func (t *Tracer) StartTrace(operation string, tags map[string]any) *Span {
	return t.newSpan(operation, uuid.New().String(), "", tags)
}

// StartSpan creates a child span sharing the parent's trace id.
func (t *Tracer) StartSpan(operation string, parent *Span, tags map[string]any) *Span {
	if parent == nil {
		return t.StartTrace(operation, tags)
	}
	return t.newSpan(operation, parent.TraceID, parent.SpanID, tags)
}

// ContinueTrace creates a span in a trace received over the wire; the
// extracted span id becomes the parent. A nil context starts a new trace.
func (t *Tracer) ContinueTrace(operation string, tc *TraceContext, tags map[string]any) *Span {
	if tc == nil {
		return t.StartTrace(operation, tags)
	}
	return t.newSpan(operation, tc.TraceID, tc.SpanID, tags)
}

// FinishSpan stamps the end time and status, records optional error detail,
// and hands the span to the exporter. Re-finishing is a no-op.
func (t *Tracer) FinishSpan(span *Span, status SpanStatus, err error) {
	if span == nil {
		return
	}
	if !span.finish(status, err) {
		return
	}
	t.exporter.Export(span)
}

// GetTraceContext serializes a span's position in its trace as
// traceId:spanId:parentSpanId:flags, with "0" meaning a root parent.
func (t *Tracer) GetTraceContext(span *Span) string {
	parent := span.ParentSpanID
	if parent == "" {
		parent = "0"
	}
	return fmt.Sprintf("%s:%s:%s:1", span.TraceID, span.SpanID, parent)
}

// ExtractTraceContext parses a propagation token. Malformed input (fewer
// than two colon-separated fields) yields nil.
func ExtractTraceContext(header string) *TraceContext {
	parts := strings.Split(header, ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil
	}

	tc := &TraceContext{TraceID: parts[0], SpanID: parts[1], Sampled: true}
	if len(parts) > 2 && parts[2] != "0" {
		tc.ParentSpanID = parts[2]
	}
	if len(parts) > 3 {
		tc.Sampled = parts[3] == "1"
	}
	return tc
}

// ActiveSpans returns the number of spans currently held in the table.
func (t *Tracer) ActiveSpans() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.spans)
}

// Cleanup evicts finished spans older than maxAge and returns the count
// removed. Unfinished spans are kept regardless of age.
func (t *Tracer) Cleanup(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, span := range t.spans {
		if span.Finished() && span.EndTime.Before(cutoff) {
			delete(t.spans, id)
			removed++
		}
	}
	return removed
}

// RunCleanup sweeps the span table on the given interval until the channel
// closes. Intended to run as a goroutine from the service wiring.
func (t *Tracer) RunCleanup(stop <-chan struct{}, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := t.Cleanup(maxAge); n > 0 {
				t.log.Debug("span table swept", logger.Fields("evicted", n))
			}
		}
	}
}

func (t *Tracer) newSpan(operation, traceID, parentID string, tags map[string]any) *Span {
	span := &Span{
		SpanID:        uuid.New().String(),
		TraceID:       traceID,
		ParentSpanID:  parentID,
		ServiceName:   t.serviceName,
		OperationName: operation,
		StartTime:     time.Now(),
		Status:        StatusPending,
	}
	if len(tags) > 0 {
		span.Tags = make(map[string]any, len(tags))
		for k, v := range tags {
			span.Tags[k] = v
		}
	}

	t.mu.Lock()
	t.spans[span.SpanID] = span
	t.mu.Unlock()

	return span
}
