package tracing

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/logger"
)

type captureExporter struct {
	mu    sync.Mutex
	spans []*Span
}

func (c *captureExporter) Export(span *Span) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spans = append(c.spans, span)
}

func (c *captureExporter) exported() []*Span {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Span(nil), c.spans...)
}

func newTestTracer(exp Exporter) *Tracer {
	return New("gateway", exp, logger.NewDefault("test"))
}

func TestStartTraceCreatesRoot(t *testing.T) {
	tr := newTestTracer(nil)
	span := tr.StartTrace("conversation.turn", map[string]any{"session_id": "s1"})

	if span.TraceID == "" || span.SpanID == "" {
		t.Fatal("expected ids to be assigned")
	}
	if span.ParentSpanID != "" {
		t.Fatalf("root span must have no parent, got %q", span.ParentSpanID)
	}
	if span.ServiceName != "gateway" || span.OperationName != "conversation.turn" {
		t.Fatalf("unexpected identity: %s/%s", span.ServiceName, span.OperationName)
	}
	if span.Status != StatusPending {
		t.Fatalf("expected pending status, got %s", span.Status)
	}
	if span.Tags["session_id"] != "s1" {
		t.Fatalf("expected initial tag, got %v", span.Tags)
	}
}

func TestStartSpanInheritsTrace(t *testing.T) {
	tr := newTestTracer(nil)
	root := tr.StartTrace("turn", nil)
	child := tr.StartSpan("call.speech", root, nil)

	if child.TraceID != root.TraceID {
		t.Fatal("child must share the trace id")
	}
	if child.ParentSpanID != root.SpanID {
		t.Fatal("child's parent must be the root span")
	}
	if child.SpanID == root.SpanID {
		t.Fatal("child must get its own span id")
	}
}

func TestStartSpanNilParentStartsTrace(t *testing.T) {
	tr := newTestTracer(nil)
	span := tr.StartSpan("orphan", nil, nil)
	if span.TraceID == "" || span.ParentSpanID != "" {
		t.Fatalf("expected a fresh root trace, got %+v", span)
	}
}

func TestTraceContextRoundTrip(t *testing.T) {
	tr := newTestTracer(nil)
	root := tr.StartTrace("turn", nil)

	token := tr.GetTraceContext(root)
	parts := strings.Split(token, ":")
	if len(parts) != 4 {
		t.Fatalf("expected 4 token fields, got %q", token)
	}
	if parts[2] != "0" {
		t.Fatalf("root parent must serialize as 0, got %q", parts[2])
	}

	tc := ExtractTraceContext(token)
	if tc == nil {
		t.Fatal("expected a parsed context")
	}
	if tc.TraceID != root.TraceID || tc.SpanID != root.SpanID {
		t.Fatalf("round trip mismatch: %+v", tc)
	}
	if tc.ParentSpanID != "" {
		t.Fatalf("0 parent must parse as empty, got %q", tc.ParentSpanID)
	}
	if !tc.Sampled {
		t.Fatal("expected sampled flag")
	}

	cont := tr.ContinueTrace("downstream", tc, nil)
	if cont.TraceID != root.TraceID {
		t.Fatal("continued span must keep the trace id")
	}
	if cont.ParentSpanID != root.SpanID {
		t.Fatal("the received span id becomes the parent")
	}
}

func TestExtractTraceContextMalformed(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"empty", ""},
		{"single field", "trace-only"},
		{"empty trace id", ":span:0:1"},
		{"empty span id", "trace::0:1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractTraceContext(tt.header); got != nil {
				t.Fatalf("expected nil, got %+v", got)
			}
		})
	}
}

func TestExtractTraceContextFlags(t *testing.T) {
	tc := ExtractTraceContext("t1:s1:p1:0")
	if tc == nil {
		t.Fatal("expected a parsed context")
	}
	if tc.ParentSpanID != "p1" {
		t.Fatalf("expected parent p1, got %q", tc.ParentSpanID)
	}
	if tc.Sampled {
		t.Fatal("flag 0 must parse as unsampled")
	}

	tc = ExtractTraceContext("t1:s1")
	if tc == nil || !tc.Sampled {
		t.Fatal("missing flags default to sampled")
	}
}

func TestContinueTraceNilStartsNewTrace(t *testing.T) {
	tr := newTestTracer(nil)
	span := tr.ContinueTrace("turn", nil, nil)
	if span.TraceID == "" || span.ParentSpanID != "" {
		t.Fatalf("expected a fresh root trace, got %+v", span)
	}
}

func TestFinishSpanExportsOnce(t *testing.T) {
	exp := &captureExporter{}
	tr := newTestTracer(exp)

	span := tr.StartTrace("turn", nil)
	tr.FinishSpan(span, StatusError, errors.New("downstream boom"))
	tr.FinishSpan(span, StatusSuccess, nil)

	got := exp.exported()
	if len(got) != 1 {
		t.Fatalf("expected exactly one export, got %d", len(got))
	}
	if got[0].Status != StatusError {
		t.Fatalf("re-finish must not overwrite status, got %s", got[0].Status)
	}
	if got[0].Tags["error.message"] != "downstream boom" {
		t.Fatalf("expected error tag, got %v", got[0].Tags)
	}
	if got[0].Duration < 0 || got[0].EndTime.IsZero() {
		t.Fatalf("expected timing stamped, got %+v", got[0])
	}
}

func TestSpanMutationAfterFinishDropped(t *testing.T) {
	tr := newTestTracer(nil)
	span := tr.StartTrace("turn", nil)
	span.SetTag("before", true)
	span.Log("info", "still open", nil)

	tr.FinishSpan(span, StatusSuccess, nil)

	span.SetTag("after", true)
	span.Log("info", "too late", nil)

	if _, ok := span.Tags["after"]; ok {
		t.Fatal("tags set after finish must be dropped")
	}
	if len(span.Logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(span.Logs))
	}
	if _, ok := span.Tags["before"]; !ok {
		t.Fatal("tags set before finish must be kept")
	}
}

func TestCleanupEvictsOnlyOldFinishedSpans(t *testing.T) {
	tr := newTestTracer(nil)

	old := tr.StartTrace("old", nil)
	tr.FinishSpan(old, StatusSuccess, nil)
	old.EndTime = time.Now().Add(-time.Hour)

	fresh := tr.StartTrace("fresh", nil)
	tr.FinishSpan(fresh, StatusSuccess, nil)

	pending := tr.StartTrace("pending", nil)
	pending.StartTime = time.Now().Add(-time.Hour)

	if got := tr.ActiveSpans(); got != 3 {
		t.Fatalf("expected 3 spans tracked, got %d", got)
	}

	removed := tr.Cleanup(10 * time.Minute)
	if removed != 1 {
		t.Fatalf("expected 1 eviction, got %d", removed)
	}
	if got := tr.ActiveSpans(); got != 2 {
		t.Fatalf("expected 2 spans after sweep, got %d", got)
	}
}
