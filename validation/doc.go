// Package validation provides request and parameter validation for the
// gateway's HTTP handlers.
//
// It supports struct tag validation (using the validator library) for JSON
// request bodies, and a fluent field validator for path and query parameters.
//
// # Struct Tag Validation
//
//	type StartRequest struct {
//	    UserID string `json:"userId" validate:"required"`
//	    Text   string `json:"text" validate:"max=4096"`
//	}
//	err := validation.Validate(req)
//
// # Field Validation
//
//	v := validation.New()
//	v.RequiredUUID("sessionId", sessionID)
//	if err := v.Validate(); err != nil {
//	    return err
//	}
package validation
