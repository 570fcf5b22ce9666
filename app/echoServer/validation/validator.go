// Package validation adapts go-playground/validator to echo's Validator
// interface so handlers can use c.Validate and V.Struct interchangeably.
package validation

import (
	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New()}
}

func (v *Validator) Validate(i any) error {
	return v.v.Struct(i)
}
