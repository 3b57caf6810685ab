// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package web

import (
	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

// formValidator adapts validator/v10 to echo.Validator.
type formValidator struct {
	v *validator.Validate
}

func newFormValidator() *formValidator {
	return &formValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator.
func (f *formValidator) Validate(i any) error {
	if err := f.v.Struct(i); err != nil {
		return oops.Code("WEB_INVALID_FORM").Wrap(err)
	}
	return nil
}
