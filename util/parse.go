package util

import (
	"strconv"
	"strings"
)

const (
	kb = 1 << 10
	mb = 1 << 20
	gb = 1 << 30
)

// ParseSize converts a size string like "10MB" or "512KB" to bytes. A bare
// number is taken as bytes. Unparseable input yields defaultBytes.
func ParseSize(s string, defaultBytes int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return defaultBytes
	}

	var unit int64 = 1
	switch {
	case strings.HasSuffix(s, "GB"):
		unit, s = gb, strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		unit, s = mb, strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		unit, s = kb, strings.TrimSuffix(s, "KB")
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return defaultBytes
	}
	return n * unit
}

// MaskSecret keeps at most visiblePrefix leading characters and replaces
// the rest with "***". Values no longer than the prefix are fully masked
// so short secrets never leak into logs.
func MaskSecret(s string, visiblePrefix int) string {
	if len(s) <= visiblePrefix {
		return "***"
	}
	return s[:visiblePrefix] + "***"
}
