// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package mail

import (
	"bytes"
	"context"
	"embed"
	"strconv"
	"text/template"
	"time"

	"github.com/samber/oops"
	"golang.org/x/text/language"

	"github.com/unitystation/centralcommand/internal/accounts"
	"github.com/unitystation/centralcommand/internal/i18n"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

// templateData is what the email templates can reference.
type templateData struct {
	DisplayName string
	Identifier  string
	Link        string
	ExpiresIn   string
}

// AccountNotifier renders account emails and hands them to a Mailer.
type AccountNotifier struct {
	mailer          Mailer
	translator      *i18n.Translator
	lang            language.Tag
	confirmationTTL time.Duration
	resetTTL        time.Duration
}

// NewAccountNotifier creates an AccountNotifier. Subjects are rendered
// in lang through translator.
func NewAccountNotifier(mailer Mailer, translator *i18n.Translator, lang language.Tag, settings accounts.Settings) (*AccountNotifier, error) {
	if mailer == nil {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("mailer is required")
	}
	if translator == nil {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("translator is required")
	}
	return &AccountNotifier{
		mailer:          mailer,
		translator:      translator,
		lang:            lang,
		confirmationTTL: settings.ConfirmationTTL,
		resetTTL:        settings.ResetTTL,
	}, nil
}

// SendConfirmation emails an account confirmation link.
func (n *AccountNotifier) SendConfirmation(ctx context.Context, a *accounts.Account, link string) error {
	return n.send(ctx, a, "confirmation.txt.tmpl", i18n.KeyConfirmationSubject, link, n.confirmationTTL)
}

// SendPasswordReset emails a password reset link.
func (n *AccountNotifier) SendPasswordReset(ctx context.Context, a *accounts.Account, link string) error {
	return n.send(ctx, a, "reset.txt.tmpl", i18n.KeyResetSubject, link, n.resetTTL)
}

func (n *AccountNotifier) send(ctx context.Context, a *accounts.Account, tmpl, subjectKey, link string, ttl time.Duration) error {
	var body bytes.Buffer
	err := templates.ExecuteTemplate(&body, tmpl, templateData{
		DisplayName: a.DisplayName,
		Identifier:  a.Identifier,
		Link:        link,
		ExpiresIn:   humanDuration(ttl),
	})
	if err != nil {
		return oops.Code("MAIL_RENDER_FAILED").With("template", tmpl).Wrap(err)
	}
	return n.mailer.Send(ctx, Message{
		To:      a.Email,
		Subject: n.translator.Text(n.lang, subjectKey),
		Body:    body.String(),
	})
}

// humanDuration formats whole hours or minutes, e.g. "24 hours".
func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a short while"
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int((d+time.Minute-1)/time.Minute), "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

var _ accounts.Notifier = (*AccountNotifier)(nil)
