package tracing

import (
	"sync"
	"time"
)

// SpanStatus is the terminal classification of a span.
type SpanStatus string

const (
	StatusPending SpanStatus = "pending"
	StatusSuccess SpanStatus = "success"
	StatusError   SpanStatus = "error"
)

// SpanLog is a timestamped log entry attached to a span.
type SpanLog struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Span is a single timed operation within a trace. It is created at
// operation start, mutated only through Log and SetTag, and finished
// exactly once; finishing is terminal.
type Span struct {
	SpanID        string         `json:"spanId"`
	TraceID       string         `json:"traceId"`
	ParentSpanID  string         `json:"parentSpanId,omitempty"`
	ServiceName   string         `json:"serviceName"`
	OperationName string         `json:"operationName"`
	StartTime     time.Time      `json:"startTime"`
	EndTime       time.Time      `json:"endTime,omitzero"`
	Duration      time.Duration  `json:"duration,omitempty"`
	Tags          map[string]any `json:"tags,omitempty"`
	Logs          []SpanLog      `json:"logs,omitempty"`
	Status        SpanStatus     `json:"status"`

	mu       sync.Mutex
	finished bool
}

// SetTag attaches a tag to the span. Tags set after the span is finished
// are dropped.
func (s *Span) SetTag(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	if s.Tags == nil {
		s.Tags = make(map[string]any)
	}
	s.Tags[key] = value
}

// Log appends a log entry to the span until it finishes.
func (s *Span) Log(level, message string, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.Logs = append(s.Logs, SpanLog{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Fields:    fields,
	})
}

// Finished reports whether the span has been finished.
func (s *Span) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// finish stamps the end time and status. Returns false if already finished.
func (s *Span) finish(status SpanStatus, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return false
	}
	s.finished = true
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
	s.Status = status
	if err != nil {
		if s.Tags == nil {
			s.Tags = make(map[string]any)
		}
		s.Tags["error.message"] = err.Error()
	}
	return true
}
