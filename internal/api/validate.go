// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/unitystation/centralcommand/internal/i18n"
	"github.com/unitystation/centralcommand/internal/identifier"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// newValidate builds the DTO validator. Field errors are reported under
// their json names.
func newValidate(iv identifier.Validator) (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := identifier.RegisterTag(v, iv); err != nil {
		return nil, err
	}
	return v, nil
}

// decode reads a JSON body into dst and validates it. Malformed bodies
// fail with REQUEST_MALFORMED and rejected fields with REQUEST_INVALID
// carrying per-field messages.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return oops.Code("REQUEST_MALFORMED").Wrap(err)
	}

	err := h.validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return oops.Code("REQUEST_INVALID").Wrap(err)
	}

	fields := fieldErrors{}
	for _, fe := range verrs {
		name := fe.Field()
		fields[name] = append(fields[name], h.fieldMessage(r, fe))
	}
	return oops.Code("REQUEST_INVALID").Wrap(fields)
}

func (h *handler) fieldMessage(r *http.Request, fe validator.FieldError) string {
	lang := langFrom(r.Context())
	switch fe.Tag() {
	case "required":
		return h.translator.Text(lang, i18n.KeyFieldRequired)
	case "email":
		return h.translator.Text(lang, i18n.KeyFieldEmail)
	case "max":
		return h.translator.Text(lang, i18n.KeyFieldTooLong)
	case identifier.Tag:
		value, _ := fe.Value().(string)
		if p, ok := fe.Value().(*string); ok && p != nil {
			value = *p
		}
		return h.translator.Outcome(lang, h.identifiers.Validate(value))
	default:
		return h.translator.Text(lang, i18n.KeyFieldInvalid)
	}
}
