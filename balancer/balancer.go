// Package balancer maintains a registry of instances per logical downstream
// service and selects one per call. Selection strategies: round-robin over
// the currently healthy subset, least-connections, and smooth weighted
// round-robin. Unhealthy instances are never selected; health transitions
// are reported explicitly by callers, the balancer does no probing itself.
package balancer

import (
	"errors"
	"sync"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/logger"
)

// Strategy selects how an instance is picked from a pool.
type Strategy string

const (
	RoundRobin         Strategy = "round_robin"
	LeastConnections   Strategy = "least_conn"
	WeightedRoundRobin Strategy = "weighted_round_robin"
)

// Common errors.
var (
	ErrNoInstance     = errors.New("no healthy instance available")
	ErrUnknownService = errors.New("service not registered")
)

// Instance is one addressable backend of a logical service.
type Instance struct {
	URL               string `json:"url"`
	Healthy           bool   `json:"healthy"`
	Weight            int    `json:"weight"`
	ActiveConnections int    `json:"activeConnections"`

	// currentWeight is the smooth weighted round-robin accumulator.
	currentWeight int
}

type pool struct {
	strategy  Strategy
	instances []*Instance
	rrIndex   int
}

// LoadBalancer owns instance pools keyed by service name. All state is
// guarded by a single mutex; selection and connection accounting are cheap.
type LoadBalancer struct {
	mu       sync.Mutex
	services map[string]*pool
	log      *logger.Logger
}

// New creates an empty load balancer.
func New(log *logger.Logger) *LoadBalancer {
	return &LoadBalancer{
		services: make(map[string]*pool),
		log:      log.WithComponent("balancer"),
	}
}

// Register creates (or replaces) the pool for a service.
func (lb *LoadBalancer) Register(service string, strategy Strategy) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if strategy == "" {
		strategy = RoundRobin
	}
	lb.services[service] = &pool{strategy: strategy}
}

// AddInstance adds a healthy instance to a service pool, registering the
// pool with round-robin selection if it does not exist yet.
func (lb *LoadBalancer) AddInstance(service, url string, weight int) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	p, ok := lb.services[service]
	if !ok {
		p = &pool{strategy: RoundRobin}
		lb.services[service] = p
	}
	if weight <= 0 {
		weight = 1
	}
	p.instances = append(p.instances, &Instance{URL: url, Healthy: true, Weight: weight})
}

// Acquire selects an instance and increments its connection count.
// The caller must Release the instance when the call completes.
func (lb *LoadBalancer) Acquire(service string) (*Instance, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	p, ok := lb.services[service]
	if !ok {
		return nil, ErrUnknownService
	}

	inst, err := p.next()
	if err != nil {
		return nil, err
	}
	inst.ActiveConnections++
	return inst, nil
}

// Release decrements the connection count acquired by Acquire.
func (lb *LoadBalancer) Release(inst *Instance) {
	if inst == nil {
		return
	}
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if inst.ActiveConnections > 0 {
		inst.ActiveConnections--
	}
}

// MarkHealthy reports a health transition for an instance by URL.
func (lb *LoadBalancer) MarkHealthy(service, url string, healthy bool) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	p, ok := lb.services[service]
	if !ok {
		return
	}
	for _, inst := range p.instances {
		if inst.URL == url && inst.Healthy != healthy {
			inst.Healthy = healthy
			lb.log.Info("instance health changed", logger.Fields(
				logger.FieldService, service,
				"url", url,
				"healthy", healthy,
			))
		}
	}
}

// Instances returns a copy of the pool for a service.
func (lb *LoadBalancer) Instances(service string) []Instance {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	p, ok := lb.services[service]
	if !ok {
		return nil
	}
	out := make([]Instance, 0, len(p.instances))
	for _, inst := range p.instances {
		out = append(out, *inst)
	}
	return out
}

// Services returns the registered service names.
func (lb *LoadBalancer) Services() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	names := make([]string, 0, len(lb.services))
	for name := range lb.services {
		names = append(names, name)
	}
	return names
}

func (p *pool) next() (*Instance, error) {
	healthy := p.healthy()
	if len(healthy) == 0 {
		return nil, ErrNoInstance
	}

	switch p.strategy {
	case LeastConnections:
		return leastConnections(healthy), nil
	case WeightedRoundRobin:
		return smoothWeighted(healthy), nil
	default:
		inst := healthy[p.rrIndex%len(healthy)]
		p.rrIndex++
		return inst, nil
	}
}

func (p *pool) healthy() []*Instance {
	out := make([]*Instance, 0, len(p.instances))
	for _, inst := range p.instances {
		if inst.Healthy {
			out = append(out, inst)
		}
	}
	return out
}

func leastConnections(instances []*Instance) *Instance {
	best := instances[0]
	for _, inst := range instances[1:] {
		if inst.ActiveConnections < best.ActiveConnections {
			best = inst
		}
	}
	return best
}

// smoothWeighted implements nginx-style smooth weighted round-robin:
// every pick raises each candidate by its weight, then the winner pays
// back the total. Selections converge to the weight proportions without
// bursting on any single instance.
func smoothWeighted(instances []*Instance) *Instance {
	total := 0
	var best *Instance
	for _, inst := range instances {
		inst.currentWeight += inst.Weight
		total += inst.Weight
		if best == nil || inst.currentWeight > best.currentWeight {
			best = inst
		}
	}
	best.currentWeight -= total
	return best
}
