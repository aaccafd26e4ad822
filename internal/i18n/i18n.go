// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

// Package i18n translates user-facing messages.
//
// English strings are built in. Configuration may override any key for any
// language, including English itself.
package i18n

import (
	"sort"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/unitystation/centralcommand/internal/identifier"
)

// Message keys.
const (
	KeyIdentifierInvalid   = identifier.MessageKey
	KeyInternal            = "error.internal"
	KeyBadRequest          = "error.bad_request"
	KeyValidation          = "error.validation"
	KeyUnauthorized        = "error.unauthorized"
	KeyNotFound            = "error.not_found"
	KeyConflict            = "error.conflict"
	KeyIdentifierTaken     = "account.identifier_taken"
	KeyEmailTaken          = "account.email_taken"
	KeyInvalidCredentials  = "account.invalid_credentials"
	KeyAccountLocked       = "account.locked"
	KeyNotConfirmed        = "account.not_confirmed"
	KeyTokenInvalid        = "token.invalid"
	KeyTokenExpired        = "token.expired"
	KeyConfirmationSubject = "mail.confirmation.subject"
	KeyResetSubject        = "mail.reset.subject"
	KeyFieldRequired       = "field.required"
	KeyFieldInvalid        = "field.invalid"
	KeyFieldEmail          = "field.email"
	KeyFieldTooLong        = "field.too_long"
	KeyHostNotAllowed      = "error.host_not_allowed"
)

var english = map[string]string{
	KeyIdentifierInvalid:   identifier.DefaultMessage,
	KeyInternal:            "An internal error occurred.",
	KeyBadRequest:          "The request could not be parsed.",
	KeyValidation:          "The submitted data is invalid.",
	KeyUnauthorized:        "Authentication credentials were not provided or are invalid.",
	KeyNotFound:            "Not found.",
	KeyConflict:            "The request conflicts with existing data.",
	KeyIdentifierTaken:     "An account with this identifier already exists.",
	KeyEmailTaken:          "An account with this email already exists.",
	KeyInvalidCredentials:  "Unable to log in with provided credentials.",
	KeyAccountLocked:       "This account is temporarily locked. Try again later.",
	KeyNotConfirmed:        "This account has not been confirmed yet. Check your email.",
	KeyTokenInvalid:        "The token is invalid.",
	KeyTokenExpired:        "The token has expired.",
	KeyConfirmationSubject: "Confirm your Central Command account",
	KeyResetSubject:        "Reset your Central Command password",
	KeyFieldRequired:       "This field is required.",
	KeyFieldInvalid:        "Enter a valid value.",
	KeyFieldEmail:          "Enter a valid email address.",
	KeyFieldTooLong:        "Ensure this field is not longer than allowed.",
	KeyHostNotAllowed:      "Invalid HTTP Host header.",
}

// Translator renders message keys in a requested language.
type Translator struct {
	builder *catalog.Builder
	keys    map[language.Tag]map[string]bool
	tags    []language.Tag
	matcher language.Matcher
}

// New creates a Translator. overrides maps a BCP 47 language tag to
// key/text pairs that replace or extend the built-in catalog.
func New(overrides map[string]map[string]string) (*Translator, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	keys := map[language.Tag]map[string]bool{language.English: {}}
	for key, text := range english {
		if err := b.SetString(language.English, key, escape(text)); err != nil {
			return nil, oops.Code("I18N_CATALOG_FAILED").With("key", key).Wrap(err)
		}
		keys[language.English][key] = true
	}

	tags := []language.Tag{language.English}
	seen := map[language.Tag]bool{language.English: true}

	langs := make([]string, 0, len(overrides))
	for lang := range overrides {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	for _, lang := range langs {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, oops.Code("I18N_INVALID_LANGUAGE").With("language", lang).Wrap(err)
		}
		if keys[tag] == nil {
			keys[tag] = map[string]bool{}
		}
		for key, text := range overrides[lang] {
			if err := b.SetString(tag, key, escape(text)); err != nil {
				return nil, oops.Code("I18N_CATALOG_FAILED").
					With("language", lang).
					With("key", key).
					Wrap(err)
			}
			keys[tag][key] = true
		}
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	return &Translator{
		builder: b,
		keys:    keys,
		tags:    tags,
		matcher: language.NewMatcher(tags),
	}, nil
}

// Languages returns the supported languages, English first.
func (t *Translator) Languages() []language.Tag {
	out := make([]language.Tag, len(t.tags))
	copy(out, t.tags)
	return out
}

// Match picks the best supported language for an Accept-Language header value.
func (t *Translator) Match(acceptLanguage string) language.Tag {
	if strings.TrimSpace(acceptLanguage) == "" {
		return language.English
	}
	_, idx := language.MatchStrings(t.matcher, acceptLanguage)
	return t.tags[idx]
}

// Text renders key in tag, falling back to English and then to the key itself.
func (t *Translator) Text(tag language.Tag, key string) string {
	if !t.keys[tag][key] {
		tag = language.English
	}
	if !t.keys[tag][key] {
		return key
	}
	return message.NewPrinter(tag, message.Catalog(t.builder)).Sprintf(key)
}

// Outcome renders the rejection reason of o in tag. Reasons without a
// catalog key are returned unchanged; an outcome without either reads as
// the default identifier message.
func (t *Translator) Outcome(tag language.Tag, o identifier.Outcome) string {
	switch {
	case o.OK():
		return ""
	case o.Key != "":
		return t.Text(tag, o.Key)
	case o.Reason != "":
		return o.Reason
	default:
		return t.Text(tag, KeyIdentifierInvalid)
	}
}

// escape protects literal percent signs from the printf-style catalog.
func escape(text string) string {
	return strings.ReplaceAll(text, "%", "%%")
}
