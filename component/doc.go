// Package component defines the lifecycle contract for the gateway's
// infrastructure pieces.
//
// Components represent services that require startup, shutdown, and health
// monitoring. They are registered with a Registry which starts them in
// registration order and stops them in reverse.
package component
