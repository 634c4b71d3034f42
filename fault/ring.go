package fault

import "sync"

// Stats is the queryable view over handled errors.
type Stats struct {
	Total      int64              `json:"total"`
	ByCategory map[Category]int64 `json:"byCategory"`
	BySeverity map[Severity]int64 `json:"bySeverity"`
	Recent     []ErrorContext     `json:"recentErrors"`
}

// ring is a bounded FIFO of handled errors plus running counters. The
// counters keep totals across the whole process lifetime; the buffer only
// retains the newest capacity entries.
type ring struct {
	mu         sync.Mutex
	entries    []ErrorContext
	capacity   int
	total      int64
	byCategory map[Category]int64
	bySeverity map[Severity]int64
}

func newRing(capacity int) *ring {
	return &ring{
		capacity:   capacity,
		byCategory: make(map[Category]int64),
		bySeverity: make(map[Severity]int64),
	}
}

func (r *ring) add(ec ErrorContext) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, ec)
	if len(r.entries) > r.capacity {
		r.entries = r.entries[len(r.entries)-r.capacity:]
	}
	r.total++
	r.byCategory[ec.Category]++
	r.bySeverity[ec.Severity]++
}

func (r *ring) stats(recent int) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	if recent <= 0 || recent > len(r.entries) {
		recent = len(r.entries)
	}

	s := Stats{
		Total:      r.total,
		ByCategory: make(map[Category]int64, len(r.byCategory)),
		BySeverity: make(map[Severity]int64, len(r.bySeverity)),
		Recent:     make([]ErrorContext, recent),
	}
	for k, v := range r.byCategory {
		s.ByCategory[k] = v
	}
	for k, v := range r.bySeverity {
		s.BySeverity[k] = v
	}
	copy(s.Recent, r.entries[len(r.entries)-recent:])
	return s
}
