// Package util provides small generic helpers shared across the gateway:
// size-string parsing, secret masking, and value coalescing.
package util
