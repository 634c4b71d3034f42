package util

// Coalesce returns the first argument that is not the zero value for T.
// Stage handlers use it to prefer a service-provided value over a default.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
