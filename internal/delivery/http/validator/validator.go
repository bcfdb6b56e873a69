// Package validator adapts go-playground/validator to Echo's Validator
// interface so handlers can rely on struct tags for input validation.
package validator

import (
	domainerrors "shopauth/internal/domain/errors"

	playgroundvalidator "github.com/go-playground/validator/v10"
)

// echoValidator wraps a single validator instance; it is safe for
// concurrent use and caches struct metadata internally.
type echoValidator struct {
	validate *playgroundvalidator.Validate
}

// New constructs the Echo request validator.
func New() *echoValidator {
	return &echoValidator{validate: playgroundvalidator.New()}
}

// Validate implements echo.Validator. Failures surface as the typed
// validation error so the error handler maps them to a 400.
func (v *echoValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
