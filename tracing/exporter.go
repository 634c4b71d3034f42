package tracing

import (
	"github.com/Purnavu-12/Gram-Sahayak-sub001/logger"
)

// Exporter receives finished spans. Implementations must be safe for
// concurrent use; Export is called synchronously from FinishSpan.
type Exporter interface {
	Export(span *Span)
}

// NopExporter discards spans.
type NopExporter struct{}

func (NopExporter) Export(*Span) {}

// LogExporter writes finished spans to the structured log. Useful in
// development and as the guaranteed sink when no collector is configured.
type LogExporter struct {
	log *logger.Logger
}

// NewLogExporter creates a log-backed exporter.
func NewLogExporter(log *logger.Logger) *LogExporter {
	return &LogExporter{log: log.WithComponent("trace-export")}
}

func (e *LogExporter) Export(span *Span) {
	fields := logger.Fields(
		logger.FieldTraceID, span.TraceID,
		logger.FieldSpanID, span.SpanID,
		logger.FieldService, span.ServiceName,
		logger.FieldOperation, span.OperationName,
		logger.FieldStatus, string(span.Status),
		logger.FieldDuration, span.Duration.Milliseconds(),
	)
	if span.ParentSpanID != "" {
		fields["parent_span_id"] = span.ParentSpanID
	}
	e.log.Debug("span finished", fields)
}
