// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

// Package mail delivers account emails over SMTP or to the log.
package mail

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/oops"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return oops.Code("MAIL_INVALID_MESSAGE").Errorf("recipient is required")
	}
	if strings.ContainsAny(m.To, "\r\n") || strings.ContainsAny(m.Subject, "\r\n") {
		return oops.Code("MAIL_INVALID_MESSAGE").With("to", m.To).Errorf("headers must not contain line breaks")
	}
	return nil
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to a logger instead of sending them. It is
// used when no SMTP host is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer. A nil logger uses slog.Default.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// Send logs msg at info level.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "email not sent, no SMTP host configured",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}

var _ Mailer = (*LogMailer)(nil)
