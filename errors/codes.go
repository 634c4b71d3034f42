package errors

// ErrorCode is the machine-readable code clients and the resilience layer
// branch on.
type ErrorCode string

// Availability codes. These mark conditions expected to clear on their own.
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeConnectionFailed   ErrorCode = "CONNECTION_FAILED"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
)

// Request codes. Retrying without changing the request cannot help.
const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

const (
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeExternalService covers failures reported by a downstream
	// collaborator service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeConnectionFailed:   true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeExternalService:    true,
}

// IsRetryableCode reports whether code marks a condition worth retrying.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
