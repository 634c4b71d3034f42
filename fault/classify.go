// Package fault centralizes error classification and recovery for the
// conversation gateway. Every downstream failure is mapped onto a fixed
// taxonomy, scored for severity, and resolved by exactly one registered
// recovery strategy; handled errors are kept in a bounded ring buffer for
// the statistics surface.
package fault

import "strings"

// Category is the error taxonomy.
type Category string

const (
	CategoryNetwork            Category = "NETWORK"
	CategoryTimeout            Category = "TIMEOUT"
	CategoryServiceUnavailable Category = "SERVICE_UNAVAILABLE"
	CategoryValidation         Category = "VALIDATION"
	CategoryAuthentication     Category = "AUTHENTICATION"
	CategoryRateLimit          Category = "RATE_LIMIT"
	CategoryDataCorruption     Category = "DATA_CORRUPTION"
	CategoryUnknown            Category = "UNKNOWN"
)

// Severity scores how damaging a handled error is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// matchOrder fixes the category test order; the first keyword hit wins.
var matchOrder = []struct {
	category Category
	keywords []string
}{
	{CategoryNetwork, []string{"network", "econnrefused", "econnreset", "enotfound", "connection refused", "connection reset", "socket", "no such host"}},
	{CategoryTimeout, []string{"timeout", "timed out", "etimedout", "deadline exceeded"}},
	{CategoryServiceUnavailable, []string{"unavailable", "503", "bad gateway", "502"}},
	{CategoryValidation, []string{"validation", "invalid", "required", "missing field", "bad request"}},
	{CategoryAuthentication, []string{"unauthorized", "authentication", "401", "403", "forbidden", "token"}},
	{CategoryRateLimit, []string{"rate limit", "429", "too many requests"}},
	{CategoryDataCorruption, []string{"corrupt", "malformed", "unexpected token", "cannot unmarshal", "parse error"}},
}

// Classify maps an error onto the taxonomy by keyword matching against its
// message. Errors matching nothing are UNKNOWN.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}
	msg := strings.ToLower(err.Error())
	for _, entry := range matchOrder {
		for _, kw := range entry.keywords {
			if strings.Contains(msg, kw) {
				return entry.category
			}
		}
	}
	return CategoryUnknown
}

// criticalErrorCount is the conversation error count past which any
// category escalates to CRITICAL.
const criticalErrorCount = 5

// Score assigns severity to a category, escalating to CRITICAL once the
// conversation has accumulated more than five handled errors.
func Score(category Category, conversationErrors int) Severity {
	if conversationErrors > criticalErrorCount {
		return SeverityCritical
	}
	switch category {
	case CategoryValidation:
		return SeverityLow
	case CategoryAuthentication, CategoryServiceUnavailable:
		return SeverityHigh
	case CategoryDataCorruption:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}
