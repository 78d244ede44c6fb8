package api

import (
	"github.com/labstack/echo/v4"

	"counselhub/pkg/validation"
)

// Validator plugs the shared validator into echo's c.Validate.
type Validator struct{}

func NewValidator() echo.Validator {
	return &Validator{}
}

func (v *Validator) Validate(i interface{}) error {
	return validation.Struct(i)
}
