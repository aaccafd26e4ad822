// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/unitystation/centralcommand/internal/i18n"
	"github.com/unitystation/centralcommand/internal/identifier"
	"github.com/unitystation/centralcommand/pkg/errutil"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// errorResponse says how an error code is presented. An empty key uses the
// error's own message. A non-empty field reports the message under it.
type errorResponse struct {
	status int
	key    string
	field  string
}

var errorResponses = map[string]errorResponse{
	identifier.CodeInvalidFormat:   {http.StatusBadRequest, i18n.KeyIdentifierInvalid, "identifier"},
	"REQUEST_MALFORMED":            {http.StatusBadRequest, i18n.KeyBadRequest, ""},
	"REQUEST_INVALID":              {http.StatusBadRequest, i18n.KeyValidation, ""},
	"HOST_NOT_ALLOWED":             {http.StatusBadRequest, i18n.KeyHostNotAllowed, ""},
	"ROUTE_NOT_FOUND":              {http.StatusNotFound, i18n.KeyNotFound, ""},
	"METHOD_NOT_ALLOWED":           {http.StatusMethodNotAllowed, i18n.KeyBadRequest, ""},
	"ACCOUNT_INVALID_DISPLAY_NAME": {http.StatusBadRequest, "", "display_name"},
	"ACCOUNT_INVALID_EMAIL":        {http.StatusBadRequest, i18n.KeyFieldEmail, "email"},
	"ACCOUNT_INVALID_PASSWORD":     {http.StatusBadRequest, "", "password"},
	"ACCOUNT_IDENTIFIER_TAKEN":     {http.StatusConflict, i18n.KeyIdentifierTaken, "identifier"},
	"ACCOUNT_EMAIL_TAKEN":          {http.StatusConflict, i18n.KeyEmailTaken, "email"},
	"ACCOUNT_CONFLICT":             {http.StatusConflict, i18n.KeyConflict, ""},
	"ACCOUNT_INVALID_CREDENTIALS":  {http.StatusBadRequest, i18n.KeyInvalidCredentials, ""},
	"ACCOUNT_LOCKED":               {http.StatusTooManyRequests, i18n.KeyAccountLocked, ""},
	"ACCOUNT_NOT_CONFIRMED":        {http.StatusForbidden, i18n.KeyNotConfirmed, ""},
	"ACCOUNT_NOT_FOUND":            {http.StatusNotFound, i18n.KeyNotFound, ""},
	"AUTH_REQUIRED":                {http.StatusUnauthorized, i18n.KeyUnauthorized, ""},
	"TOKEN_EMPTY":                  {http.StatusUnauthorized, i18n.KeyUnauthorized, ""},
	"TOKEN_INVALID":                {http.StatusUnauthorized, i18n.KeyUnauthorized, ""},
	"TOKEN_EXPIRED":                {http.StatusUnauthorized, i18n.KeyUnauthorized, ""},
	"TOKEN_NOT_FOUND":              {http.StatusNotFound, i18n.KeyNotFound, ""},
	"CONFIRMATION_TOKEN_EMPTY":     {http.StatusBadRequest, i18n.KeyTokenInvalid, "token"},
	"CONFIRMATION_TOKEN_INVALID":   {http.StatusBadRequest, i18n.KeyTokenInvalid, "token"},
	"CONFIRMATION_TOKEN_EXPIRED":   {http.StatusBadRequest, i18n.KeyTokenExpired, "token"},
	"RESET_TOKEN_EMPTY":            {http.StatusBadRequest, i18n.KeyTokenInvalid, "token"},
	"RESET_TOKEN_INVALID":          {http.StatusBadRequest, i18n.KeyTokenInvalid, "token"},
	"RESET_TOKEN_EXPIRED":          {http.StatusBadRequest, i18n.KeyTokenExpired, "token"},
}

var internalResponse = errorResponse{status: http.StatusInternalServerError, key: i18n.KeyInternal}

// fieldErrors carries per-field messages of a rejected request body.
type fieldErrors map[string][]string

func (f fieldErrors) Error() string {
	return "request body failed validation"
}

// writeError renders err as the JSON error envelope. Unknown codes are
// logged and reported as internal errors without detail.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errutil.Code(err)
	resp, known := errorResponses[code]
	if !known {
		resp = internalResponse
		errutil.LogError(h.logger, "request failed", err)
		code = "INTERNAL"
	}

	lang := langFrom(r.Context())
	detail := errorDetail{Code: code}

	switch {
	case code == identifier.CodeInvalidFormat:
		detail.Message = h.identifierMessage(r, err)
	case resp.key != "":
		detail.Message = h.translator.Text(lang, resp.key)
	default:
		detail.Message = err.Error()
	}

	var fields fieldErrors
	switch {
	case errors.As(err, &fields):
		detail.Fields = fields
	case resp.field != "":
		detail.Fields = map[string][]string{resp.field: {detail.Message}}
	}

	if !known {
		detail.Message = h.translator.Text(lang, i18n.KeyInternal)
		detail.Fields = nil
	}
	respondJSON(w, resp.status, errorBody{Error: detail})
}

// identifierMessage renders a rejected identifier's reason in the
// request language. A custom validator message has no catalog key and is
// reported verbatim.
func (h *handler) identifierMessage(r *http.Request, err error) string {
	key := ""
	if oopsErr, ok := oops.AsOops(err); ok {
		key, _ = oopsErr.Context()["message_key"].(string)
	}
	if key != "" {
		return h.translator.Text(langFrom(r.Context()), key)
	}
	var fe *identifier.FormatError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return identifier.DefaultMessage
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("failed to encode response JSON", "error", err)
	}
}
