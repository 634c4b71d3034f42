// Package server provides the gateway's HTTP surface: a Gin engine with
// HTTP/2 (h2c) support, the standard middleware stack, and the REST API
// that fronts the conversation orchestrator.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request ID generation and propagation
//   - TraceContext: X-Trace-Context header extraction
//   - CORS: cross-origin resource sharing configuration
//   - BodySize: request body size limits
//   - RateLimit: per-client sliding-window rate limiting
//   - Logging: request logging with duration tracking
//
// # API
//
// Conversation routes live under /api/v1/conversation; operational routes
// expose error statistics, circuit breaker state, and dependency health.
package server
