// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package identifier

import (
	"errors"
	"regexp"
	"unicode/utf8"

	"github.com/samber/oops"
)

// MinLength is the shortest accepted identifier.
const MinLength = 3

// Pattern is the character-class rule every identifier must match in full.
const Pattern = `^[a-zA-Z0-9_\-.]{3,}$`

// CodeInvalidFormat is the error code carried by Outcome.Err.
const CodeInvalidFormat = "INVALID_IDENTIFIER_FORMAT"

// MessageKey is the catalog key of the default rejection message.
const MessageKey = "identifier.invalid"

// DefaultMessage is the rejection message reported when none is configured.
const DefaultMessage = "Enter a valid account identifier. This value may contain only English letters, numbers, and -/_ characters."

var pattern = regexp.MustCompile(Pattern)

// ErrInvalidFormat is matched by errors.Is for every rejection error.
var ErrInvalidFormat = errors.New("invalid identifier format")

// Status is the verdict of a validation.
type Status int

// Validation verdicts. StatusUnknown is the zero value so that an Outcome
// nobody filled in is never mistaken for an acceptance.
const (
	StatusUnknown Status = iota
	StatusAccepted
	StatusRejected
)

// String returns the verdict name.
func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Outcome is the result of validating one identifier.
// Only StatusAccepted accepts; the zero value is treated as a rejection
// with the default message.
type Outcome struct {
	Status Status
	// Reason is the human-readable rejection message. Empty when accepted.
	Reason string
	// Key is the catalog key for translating Reason. Empty when the
	// validator was configured with a custom message.
	Key string
}

// Accepted returns an accepting Outcome.
func Accepted() Outcome {
	return Outcome{Status: StatusAccepted}
}

// Rejected returns a rejecting Outcome with a custom reason and no
// catalog key.
func Rejected(reason string) Outcome {
	return Outcome{Status: StatusRejected, Reason: reason}
}

// OK reports whether the identifier was accepted.
func (o Outcome) OK() bool {
	return o.Status == StatusAccepted
}

// Err returns nil for an accepted outcome, otherwise an error coded
// CodeInvalidFormat whose message is the rejection reason.
func (o Outcome) Err() error {
	if o.OK() {
		return nil
	}
	reason, key := o.Reason, o.Key
	if reason == "" {
		reason, key = DefaultMessage, MessageKey
	}
	return oops.Code(CodeInvalidFormat).
		With("message_key", key).
		Wrap(&FormatError{Reason: reason})
}

// String implements fmt.Stringer.
func (o Outcome) String() string {
	if o.OK() || o.Reason == "" {
		return o.Status.String()
	}
	return o.Status.String() + ": " + o.Reason
}

// FormatError is the underlying error of a rejected Outcome.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return e.Reason
}

// Is lets errors.Is match ErrInvalidFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// Validator decides whether a candidate identifier is acceptable.
type Validator interface {
	Validate(identifier string) Outcome
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(identifier string) Outcome

// Validate calls f(identifier).
func (f ValidatorFunc) Validate(identifier string) Outcome {
	return f(identifier)
}

// AccountName validates account identifiers against Pattern and the
// ASCII-only rule.
type AccountName struct {
	message string
	key     string
}

// Option configures an AccountName validator.
type Option func(*AccountName)

// WithMessage replaces the rejection message. A blank message keeps the default.
func WithMessage(msg string) Option {
	return func(v *AccountName) {
		if msg == "" {
			return
		}
		v.message = msg
		v.key = ""
	}
}

// NewAccountName creates an account identifier validator.
func NewAccountName(opts ...Option) *AccountName {
	v := &AccountName{
		message: DefaultMessage,
		key:     MessageKey,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks identifier. Both predicates are evaluated independently:
// the character-class match and the ASCII-only restriction.
func (v *AccountName) Validate(identifier string) Outcome {
	if pattern.MatchString(identifier) && isASCII(identifier) {
		return Accepted()
	}
	return Outcome{
		Status: StatusRejected,
		Reason: v.message,
		Key:    v.key,
	}
}

// Message returns the rejection message this validator reports.
func (v *AccountName) Message() string {
	return v.message
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

var defaultValidator = NewAccountName()

// Default returns the shared validator with the default message.
func Default() Validator {
	return defaultValidator
}

// Validate checks identifier with the default validator.
func Validate(identifier string) Outcome {
	return defaultValidator.Validate(identifier)
}
