// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// SMTP defaults.
const (
	DefaultSMTPPort    = 1337
	DefaultSMTPTimeout = 10 * time.Second
	defaultAttempts    = 3
	defaultBackoff     = 200 * time.Millisecond
)

// SMTPConfig configures an SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	// UseTLS upgrades the connection with STARTTLS.
	UseTLS  bool
	Timeout time.Duration
}

func (c SMTPConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SMTPMailer sends email through an SMTP relay. Transient failures are
// retried with exponential backoff.
type SMTPMailer struct {
	cfg      SMTPConfig
	dial     func(ctx context.Context, addr string) (net.Conn, error)
	attempts uint64
	backoff  time.Duration
	now      func() time.Time
}

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("sender address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultSMTPPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSMTPTimeout
	}
	d := &net.Dialer{Timeout: cfg.Timeout}
	return &SMTPMailer{
		cfg:      cfg,
		dial:     func(ctx context.Context, addr string) (net.Conn, error) { return d.DialContext(ctx, "tcp", addr) },
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		now:      time.Now,
	}, nil
}

// Send delivers msg, retrying connection and 4xx failures.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	body := m.render(msg)

	retries := uint64(0)
	if m.attempts > 1 {
		retries = m.attempts - 1
	}
	backoff := retry.WithMaxRetries(retries, retry.NewExponential(m.backoff))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := m.deliver(ctx, msg.To, body)
		if err != nil && transient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("host", m.cfg.Host).
			With("to", msg.To).
			With("attempts", attempt).
			Wrap(err)
	}
	return nil
}

func (m *SMTPMailer) deliver(ctx context.Context, to string, body []byte) error {
	conn, err := m.dial(ctx, m.cfg.addr())
	if err != nil {
		return err
	}
	defer conn.Close() //nolint:errcheck // client.Quit reports the meaningful error
	_ = conn.SetDeadline(m.now().Add(m.cfg.Timeout))

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck // see above

	if m.cfg.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return errStartTLSUnsupported
		}
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return err
		}
	}
	if m.cfg.User != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)); err != nil {
				return err
			}
		}
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

var errStartTLSUnsupported = errors.New("smtp server does not support STARTTLS")

// transient reports whether err is worth retrying: network failures and
// 4xx SMTP replies.
func transient(err error) bool {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code >= 400 && protoErr.Code < 500
	}
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, net.ErrClosed)
}

func (m *SMTPMailer) render(msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(msg.Body)
	return b.Bytes()
}

var _ Mailer = (*SMTPMailer)(nil)
