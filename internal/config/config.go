// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

// Package config loads Central Command settings from defaults, a YAML file,
// the environment and command-line flags, in that order of precedence.
package config

import (
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"
	"golang.org/x/text/language"

	"github.com/unitystation/centralcommand/internal/accounts"
)

// redacted replaces secrets in Redacted output.
const redacted = "********"

// Config is the complete runtime configuration.
type Config struct {
	SecretKey    string         `koanf:"secret_key" yaml:"secret_key" jsonschema:"description=Deployment secret. Required unless debug is set"`
	Debug        bool           `koanf:"debug" yaml:"debug"`
	AllowedHosts []string       `koanf:"allowed_hosts" yaml:"allowed_hosts" jsonschema:"description=Host header values the API answers to. * allows any host"`
	Database     DatabaseConfig `koanf:"database" yaml:"database"`
	Accounts     AccountsConfig `koanf:"accounts" yaml:"accounts"`
	Email        EmailConfig    `koanf:"email" yaml:"email"`
	Website      WebsiteConfig  `koanf:"website" yaml:"website"`
	Static       StaticConfig   `koanf:"static" yaml:"static"`
	Log          LogConfig      `koanf:"log" yaml:"log"`
	HTTP         HTTPConfig     `koanf:"http" yaml:"http"`
	Metrics      MetricsConfig  `koanf:"metrics" yaml:"metrics"`
	I18n         I18nConfig     `koanf:"i18n" yaml:"i18n"`
}

// DatabaseConfig locates the PostgreSQL database. URL takes precedence
// over the individual parts.
type DatabaseConfig struct {
	URL      string `koanf:"url" yaml:"url,omitempty" jsonschema:"description=postgres:// connection URL"`
	Host     string `koanf:"host" yaml:"host"`
	Port     int    `koanf:"port" yaml:"port" jsonschema:"minimum=1,maximum=65535"`
	Name     string `koanf:"name" yaml:"name"`
	User     string `koanf:"user" yaml:"user"`
	Password string `koanf:"password" yaml:"password,omitempty"`
	SSLMode  string `koanf:"sslmode" yaml:"sslmode" jsonschema:"enum=disable,enum=allow,enum=prefer,enum=require,enum=verify-ca,enum=verify-full"`
}

// DSN returns the connection string for store.Open.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

// AccountsConfig controls token lifetimes and confirmation.
type AccountsConfig struct {
	TokenTTL            time.Duration `koanf:"token_ttl" yaml:"token_ttl" jsonschema:"type=string,description=Auth token lifetime such as 720h"`
	ConfirmationTTL     time.Duration `koanf:"confirmation_ttl" yaml:"confirmation_ttl" jsonschema:"type=string"`
	ResetTTL            time.Duration `koanf:"reset_ttl" yaml:"reset_ttl" jsonschema:"type=string"`
	RequireConfirmation bool          `koanf:"require_confirmation" yaml:"require_confirmation"`
}

// EmailConfig configures outgoing mail. An empty Host logs messages
// instead of sending them.
type EmailConfig struct {
	Host     string        `koanf:"host" yaml:"host"`
	Port     int           `koanf:"port" yaml:"port" jsonschema:"minimum=1,maximum=65535"`
	User     string        `koanf:"user" yaml:"user"`
	Password string        `koanf:"password" yaml:"password,omitempty"`
	From     string        `koanf:"from" yaml:"from"`
	UseTLS   bool          `koanf:"use_tls" yaml:"use_tls"`
	Timeout  time.Duration `koanf:"timeout" yaml:"timeout" jsonschema:"type=string"`
}

// SenderAddress is From, or User when From is unset.
func (c EmailConfig) SenderAddress() string {
	if c.From != "" {
		return c.From
	}
	return c.User
}

// WebsiteConfig is the public site that hosts the confirmation and
// password reset pages.
type WebsiteConfig struct {
	URL                          string `koanf:"url" yaml:"url"`
	PassResetURLSuffix           string `koanf:"pass_reset_url_suffix" yaml:"pass_reset_url_suffix"`
	AccountConfirmationURLSuffix string `koanf:"account_confirmation_url_suffix" yaml:"account_confirmation_url_suffix"`
}

// ResetURL is the website URL joined with the reset suffix.
func (c WebsiteConfig) ResetURL() (string, error) {
	return joinURL(c.URL, c.PassResetURLSuffix)
}

// ConfirmationURL is the website URL joined with the confirmation suffix.
func (c WebsiteConfig) ConfirmationURL() (string, error) {
	return joinURL(c.URL, c.AccountConfirmationURLSuffix)
}

// joinURL resolves ref against base the way a browser resolves a link:
// a relative ref replaces the last path segment of base unless base ends
// in a slash.
func joinURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", oops.Code("CONFIG_INVALID").With("url", base).Wrap(err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", oops.Code("CONFIG_INVALID").With("url", ref).Wrap(err)
	}
	return b.ResolveReference(r).String(), nil
}

// StaticConfig serves files from Root under URL. An empty Root disables it.
type StaticConfig struct {
	URL  string `koanf:"url" yaml:"url" jsonschema:"pattern=^/"`
	Root string `koanf:"root" yaml:"root"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Format string `koanf:"format" yaml:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout" jsonschema:"type=string"`
}

// MetricsConfig configures the observability listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// I18nConfig selects the default language and overrides catalog entries.
type I18nConfig struct {
	Language string                       `koanf:"language" yaml:"language"`
	Messages map[string]map[string]string `koanf:"messages" yaml:"messages,omitempty" jsonschema:"description=Language tag to message key to text"`
}

// Tag parses Language. Validate guarantees it parses.
func (c I18nConfig) Tag() language.Tag {
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// AccountSettings converts the configuration into accounts.Settings.
func (c *Config) AccountSettings() (accounts.Settings, error) {
	confirmURL, err := c.Website.ConfirmationURL()
	if err != nil {
		return accounts.Settings{}, err
	}
	resetURL, err := c.Website.ResetURL()
	if err != nil {
		return accounts.Settings{}, err
	}
	return accounts.Settings{
		TokenTTL:            c.Accounts.TokenTTL,
		ConfirmationTTL:     c.Accounts.ConfirmationTTL,
		ResetTTL:            c.Accounts.ResetTTL,
		RequireConfirmation: c.Accounts.RequireConfirmation,
		ConfirmationURL:     confirmURL,
		ResetURL:            resetURL,
	}, nil
}

// normalize fills values that depend on other settings.
func (c *Config) normalize() {
	if len(c.AllowedHosts) == 0 {
		if c.Debug {
			c.AllowedHosts = []string{"*"}
		} else {
			c.AllowedHosts = []string{"localhost", "127.0.0.1"}
		}
	}
	c.Log.Format = strings.ToLower(c.Log.Format)
	c.Log.Level = strings.ToLower(c.Log.Level)
	if c.Debug {
		c.Log.Level = "debug"
	}
}

func invalid(field string, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("field", field).Errorf(format, args...)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.SecretKey == "" && !c.Debug {
		return invalid("secret_key", "secret_key is required unless debug is enabled")
	}

	if c.Database.URL != "" {
		u, err := url.Parse(c.Database.URL)
		if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			return invalid("database.url", "database.url must be a postgres:// URL")
		}
	} else {
		if c.Database.Host == "" {
			return invalid("database.host", "database.host is required when database.url is empty")
		}
		if c.Database.Name == "" {
			return invalid("database.name", "database.name is required when database.url is empty")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return invalid("database.port", "database.port %d is out of range", c.Database.Port)
		}
	}

	ttls := []struct {
		field string
		value time.Duration
	}{
		{"accounts.token_ttl", c.Accounts.TokenTTL},
		{"accounts.confirmation_ttl", c.Accounts.ConfirmationTTL},
		{"accounts.reset_ttl", c.Accounts.ResetTTL},
	}
	for _, ttl := range ttls {
		if ttl.value <= 0 {
			return invalid(ttl.field, "%s must be positive", ttl.field)
		}
	}

	if c.Email.Port < 1 || c.Email.Port > 65535 {
		return invalid("email.port", "email.port %d is out of range", c.Email.Port)
	}
	if c.Email.Host != "" && c.Email.SenderAddress() == "" {
		return invalid("email.from", "email.from or email.user is required when email.host is set")
	}

	site, err := url.Parse(c.Website.URL)
	if err != nil || !site.IsAbs() || (site.Scheme != "http" && site.Scheme != "https") {
		return invalid("website.url", "website.url %q must be an absolute http(s) URL", c.Website.URL)
	}
	if _, err := c.Website.ResetURL(); err != nil {
		return invalid("website.pass_reset_url_suffix", "invalid suffix: %v", err)
	}
	if _, err := c.Website.ConfirmationURL(); err != nil {
		return invalid("website.account_confirmation_url_suffix", "invalid suffix: %v", err)
	}

	if !strings.HasPrefix(c.Static.URL, "/") || !strings.HasSuffix(c.Static.URL, "/") {
		return invalid("static.url", "static.url %q must start and end with /", c.Static.URL)
	}

	if !slices.Contains([]string{"json", "text"}, c.Log.Format) {
		return invalid("log.format", "log.format %q must be json or text", c.Log.Format)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		return invalid("log.level", "log.level %q is not a known level", c.Log.Level)
	}

	if c.HTTP.Addr == "" {
		return invalid("http.addr", "http.addr is required")
	}

	if _, err := language.Parse(c.I18n.Language); err != nil {
		return invalid("i18n.language", "i18n.language %q is not a BCP 47 tag", c.I18n.Language)
	}
	for lang := range c.I18n.Messages {
		if _, err := language.Parse(lang); err != nil {
			return invalid("i18n.messages", "i18n.messages key %q is not a BCP 47 tag", lang)
		}
	}
	return nil
}

// Redacted returns a copy with secrets masked, suitable for printing.
func (c *Config) Redacted() *Config {
	out := *c
	out.AllowedHosts = slices.Clone(c.AllowedHosts)
	if out.SecretKey != "" {
		out.SecretKey = redacted
	}
	if out.Database.Password != "" {
		out.Database.Password = redacted
	}
	if out.Database.URL != "" {
		// URL.Redacted masks the password as "xxxxx"; the asterisk mask
		// would be percent-encoded inside userinfo.
		if u, err := url.Parse(out.Database.URL); err == nil {
			out.Database.URL = u.Redacted()
		}
	}
	if out.Email.Password != "" {
		out.Email.Password = redacted
	}
	return &out
}
