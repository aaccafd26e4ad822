// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package identifier

import (
	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

// Tag is the struct tag name under which RegisterTag installs the rule.
const Tag = "account_identifier"

// RegisterTag installs iv as the `account_identifier` struct tag on v.
// A nil iv registers the default validator.
func RegisterTag(v *validator.Validate, iv Validator) error {
	if v == nil {
		return oops.Code("IDENTIFIER_TAG_REGISTER_FAILED").Errorf("validate instance is required")
	}
	if iv == nil {
		iv = Default()
	}
	err := v.RegisterValidation(Tag, func(fl validator.FieldLevel) bool {
		return iv.Validate(fl.Field().String()).OK()
	})
	if err != nil {
		return oops.Code("IDENTIFIER_TAG_REGISTER_FAILED").With("tag", Tag).Wrap(err)
	}
	return nil
}
