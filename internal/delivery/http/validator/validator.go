// Package validator plugs go-playground validation into echo's binding flow.
package validator

import (
	domainerrors "fittrack/internal/domain/errors"

	"github.com/go-playground/validator/v10"
)

// EchoValidator adapts a go-playground validator to echo.Validator.
type EchoValidator struct {
	validate *validator.Validate
}

// New creates a validator instance with struct tag validation enabled.
func New() *EchoValidator {
	return &EchoValidator{validate: validator.New()}
}

// Validate checks the struct's `validate` tags and maps failures onto the
// domain validation error so the error middleware renders them as 400s.
func (v *EchoValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
