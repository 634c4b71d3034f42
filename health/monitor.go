// Package health probes downstream dependency health on demand and on a
// periodic sweep, caching results for a short TTL so the health surface
// and the orchestrator never stampede a struggling collaborator.
package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/logger"
)

// Status is the aggregate health classification.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Probe checks one dependency.
type Probe interface {
	Name() string
	Check(ctx context.Context) error
}

// Result is the outcome of a single probe.
type Result struct {
	Name      string        `json:"name"`
	Healthy   bool          `json:"healthy"`
	Message   string        `json:"message,omitempty"`
	Latency   time.Duration `json:"latencyMs"`
	CheckedAt time.Time     `json:"checkedAt"`
}

// Aggregate is the whole-gateway health view: healthy when every
// dependency is healthy, degraded when at least half are, else unhealthy.
type Aggregate struct {
	Status       Status   `json:"status"`
	Dependencies []Result `json:"dependencies"`
}

// Monitor caches probe results for a short TTL.
type Monitor struct {
	ttl time.Duration
	log *logger.Logger

	// OnTransition, when set, is called outside the lock whenever a
	// dependency's health flips. Used to feed the load balancer.
	OnTransition func(name string, healthy bool)

	mu     sync.Mutex
	probes map[string]Probe
	cache  map[string]cachedResult
}

type cachedResult struct {
	result  Result
	expires time.Time
}

// NewMonitor creates a monitor; ttl defaults to 10s when non-positive.
func NewMonitor(ttl time.Duration, log *logger.Logger) *Monitor {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Monitor{
		ttl:    ttl,
		log:    log.WithComponent("health"),
		probes: make(map[string]Probe),
		cache:  make(map[string]cachedResult),
	}
}

// Register adds a dependency probe.
func (m *Monitor) Register(p Probe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes[p.Name()] = p
}

// Check probes one dependency, serving a cached result within the TTL.
func (m *Monitor) Check(ctx context.Context, name string) (Result, error) {
	m.mu.Lock()
	probe, ok := m.probes[name]
	if !ok {
		m.mu.Unlock()
		return Result{}, fmt.Errorf("health: unknown dependency %q", name)
	}
	if cached, ok := m.cache[name]; ok && time.Now().Before(cached.expires) {
		m.mu.Unlock()
		return cached.result, nil
	}
	m.mu.Unlock()

	return m.runProbe(ctx, probe), nil
}

// CheckAll probes every registered dependency.
func (m *Monitor) CheckAll(ctx context.Context) []Result {
	m.mu.Lock()
	names := make([]string, 0, len(m.probes))
	for name := range m.probes {
		names = append(names, name)
	}
	m.mu.Unlock()

	results := make([]Result, 0, len(names))
	for _, name := range names {
		if r, err := m.Check(ctx, name); err == nil {
			results = append(results, r)
		}
	}
	return results
}

// Aggregate classifies overall gateway health from all dependencies.
func (m *Monitor) Aggregate(ctx context.Context) Aggregate {
	results := m.CheckAll(ctx)

	healthy := 0
	for _, r := range results {
		if r.Healthy {
			healthy++
		}
	}

	status := StatusUnhealthy
	switch {
	case len(results) == 0 || healthy == len(results):
		status = StatusHealthy
	case healthy*2 >= len(results):
		status = StatusDegraded
	}

	return Aggregate{Status: status, Dependencies: results}
}

// Run sweeps all probes on the given interval until stop closes.
func (m *Monitor) Run(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.CheckAll(context.Background())
		}
	}
}

func (m *Monitor) runProbe(ctx context.Context, probe Probe) Result {
	start := time.Now()
	err := probe.Check(ctx)

	result := Result{
		Name:      probe.Name(),
		Healthy:   err == nil,
		Latency:   time.Since(start),
		CheckedAt: time.Now(),
	}
	if err != nil {
		result.Message = err.Error()
	}

	m.mu.Lock()
	prev, had := m.cache[probe.Name()]
	m.cache[probe.Name()] = cachedResult{result: result, expires: time.Now().Add(m.ttl)}
	m.mu.Unlock()

	if had && prev.result.Healthy != result.Healthy {
		m.log.Info("dependency health changed", logger.Fields(
			logger.FieldService, probe.Name(),
			"healthy", result.Healthy,
		))
		if m.OnTransition != nil {
			m.OnTransition(probe.Name(), result.Healthy)
		}
	}
	return result
}

// HTTPProbe checks a dependency by requesting its health endpoint.
type HTTPProbe struct {
	name   string
	url    string
	client *http.Client
}

// NewHTTPProbe creates a probe for name hitting url (typically .../health).
func NewHTTPProbe(name, url string, timeout time.Duration) *HTTPProbe {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPProbe{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns the dependency name.
func (p *HTTPProbe) Name() string { return p.name }

// Check performs the HTTP probe; any non-2xx status is unhealthy.
func (p *HTTPProbe) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("probe %s: unexpected status %d", p.name, resp.StatusCode)
	}
	return nil
}

// ProbeFunc adapts a function to the Probe interface (used in tests).
type ProbeFunc struct {
	ProbeName string
	Fn        func(ctx context.Context) error
}

func (p ProbeFunc) Name() string                    { return p.ProbeName }
func (p ProbeFunc) Check(ctx context.Context) error { return p.Fn(ctx) }
