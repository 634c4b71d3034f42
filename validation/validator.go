package validation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/errors"
)

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates field errors across a chain of checks. All check
// methods return the receiver so they can be chained; call Validate at the
// end to collapse the accumulated errors into a single AppError.
type Validator struct {
	errs []FieldError
}

func New() *Validator {
	return &Validator{}
}

// AddError records a failure for field. Check methods funnel through here;
// callers can also use it directly for one-off conditions.
func (v *Validator) AddError(field, message string) {
	v.errs = append(v.errs, FieldError{Field: field, Message: message})
}

func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

func (v *Validator) Errors() []FieldError {
	return v.errs
}

// Validate returns nil when every check passed, otherwise a validation
// AppError whose Details carry the per-field breakdown.
func (v *Validator) Validate() *errors.AppError {
	if len(v.errs) == 0 {
		return nil
	}

	parts := make([]string, len(v.errs))
	for i, e := range v.errs {
		parts[i] = e.Field + ": " + e.Message
	}

	appErr := errors.Validation(strings.Join(parts, "; "))
	appErr.Details = map[string]any{"fields": v.errs}
	return appErr
}

// Required fails when value is empty or whitespace.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// RequiredUUID fails unless value parses as a non-nil UUID. Session and
// user identifiers in path parameters go through this.
func (v *Validator) RequiredUUID(field, value string) *Validator {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		v.AddError(field, "is required")
		return v
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		v.AddError(field, "must be a valid UUID")
		return v
	}
	if id == uuid.Nil {
		v.AddError(field, "must not be the zero UUID")
	}
	return v
}

// OptionalUUID accepts an empty value, but a non-empty one must parse.
func (v *Validator) OptionalUUID(field, value string) *Validator {
	if value == "" {
		return v
	}
	if _, err := uuid.Parse(value); err != nil {
		v.AddError(field, "must be a valid UUID")
	}
	return v
}

// MaxLength fails when value exceeds maxLen bytes.
func (v *Validator) MaxLength(field, value string, maxLen int) *Validator {
	if len(value) > maxLen {
		v.AddError(field, fmt.Sprintf("must be %d characters or less", maxLen))
	}
	return v
}

// OneOf fails when a non-empty value is not in the allowed set.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, "must be one of: "+strings.Join(allowed, ", "))
	return v
}

// Custom records message for field when condition is false.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}
