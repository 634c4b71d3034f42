// Package resilience provides the primitives that protect every downstream
// call the gateway makes: a per-dependency circuit breaker, a bounded retry
// policy with exponential backoff, a bulkhead for concurrency isolation, and
// a fallback executor that composes them and escalates across service tiers.
package resilience
