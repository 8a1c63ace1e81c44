package handler

import (
	"github.com/go-playground/validator/v10"
)

// RequestValidator adapts go-playground/validator to Echo's
// Validator interface so request DTOs can declare their constraints
// as struct tags and handlers can call c.Validate(&req) after Bind.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator builds the validator used for all request
// bodies. Field names in error messages use the json tag form.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i any) error {
	return rv.validate.Struct(i)
}
