// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/unitystation/centralcommand/pkg/errutil"
)

// clearEnv neutralizes every variable Load reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for name := range legacyEnv {
		t.Setenv(name, "")
	}
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
		}
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfig() *Config {
	return &Config{
		SecretKey:    "s3cret",
		AllowedHosts: []string{"localhost"},
		Database:     DatabaseConfig{Host: "db", Port: 5432, Name: "cc", User: "cc", SSLMode: "disable"},
		Accounts: AccountsConfig{
			TokenTTL:            720 * time.Hour,
			ConfirmationTTL:     24 * time.Hour,
			ResetTTL:            time.Hour,
			RequireConfirmation: true,
		},
		Email:   EmailConfig{Port: 1337, UseTLS: true, Timeout: 10 * time.Second},
		Website: WebsiteConfig{URL: "https://unitystation.org/", PassResetURLSuffix: "reset/", AccountConfirmationURLSuffix: "confirm/"},
		Static:  StaticConfig{URL: "/static/"},
		Log:     LogConfig{Format: "json", Level: "info"},
		HTTP:    HTTPConfig{Addr: ":8000", ShutdownTimeout: 15 * time.Second},
		I18n:    I18nConfig{Language: "en"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cret")

	cfg, err := Load(Options{SkipDefaultFile: true})
	require.NoError(t, err)

	assert.False(t, cfg.Debug)
	assert.Equal(t, []string{"localhost", "127.0.0.1"}, cfg.AllowedHosts)
	assert.Equal(t, 720*time.Hour, cfg.Accounts.TokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.Accounts.ConfirmationTTL)
	assert.Equal(t, 60*time.Minute, cfg.Accounts.ResetTTL)
	assert.True(t, cfg.Accounts.RequireConfirmation)
	assert.Equal(t, 1337, cfg.Email.Port)
	assert.True(t, cfg.Email.UseTLS)
	assert.Equal(t, "/static/", cfg.Static.URL)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, language.English, cfg.I18n.Tag())
	assert.Equal(t, "postgres://postgres@localhost:5432/centralcommand?sslmode=prefer", cfg.Database.DSN())
}

func TestLoad_DebugDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DJANGO_DEBUG", "1")

	cfg, err := Load(Options{SkipDefaultFile: true})
	require.NoError(t, err, "secret_key is optional in debug mode")
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"*"}, cfg.AllowedHosts)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_LegacyEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "central")
	t.Setenv("DB_USER", "cc")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("EMAIL_HOST", "smtp.internal")
	t.Setenv("EMAIL_PORT", "587")
	t.Setenv("EMAIL_HOST_USER", "noreply@unitystation.org")
	t.Setenv("EMAIL_USE_TLS", "false")
	t.Setenv("WEBSITE_URL", "https://unitystation.org/")
	t.Setenv("PASS_RESET_URL_SUFFIX", "accounts/reset-password/")
	t.Setenv("ACCOUNT_CONFIRMATION_URL_SUFFIX", "accounts/confirm-account/")
	t.Setenv("ALLOWED_HOSTS", "api.unitystation.org, localhost")

	cfg, err := Load(Options{SkipDefaultFile: true})
	require.NoError(t, err)

	assert.Equal(t, "postgres://cc:pw@db.internal:6543/central?sslmode=prefer", cfg.Database.DSN())
	assert.Equal(t, "smtp.internal", cfg.Email.Host)
	assert.Equal(t, 587, cfg.Email.Port)
	assert.False(t, cfg.Email.UseTLS)
	assert.Equal(t, "noreply@unitystation.org", cfg.Email.SenderAddress())
	assert.Equal(t, []string{"api.unitystation.org", "localhost"}, cfg.AllowedHosts)

	settings, err := cfg.AccountSettings()
	require.NoError(t, err)
	assert.Equal(t, "https://unitystation.org/accounts/reset-password/", settings.ResetURL)
	assert.Equal(t, "https://unitystation.org/accounts/confirm-account/", settings.ConfirmationURL)
	assert.Equal(t, time.Hour, settings.ResetTTL)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
secret_key: from-file
http:
  addr: ":7000"
metrics:
  addr: ":7001"
log:
  format: text
accounts:
  token_ttl: 48h
`)
	t.Setenv("CENTRALCOMMAND_METRICS__ADDR", ":7101")
	t.Setenv("CENTRALCOMMAND_HTTP__ADDR", ":7100")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--http-addr", ":7200"}))

	cfg, err := Load(Options{File: path, Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.SecretKey)
	assert.Equal(t, "text", cfg.Log.Format, "file overrides defaults")
	assert.Equal(t, 48*time.Hour, cfg.Accounts.TokenTTL)
	assert.Equal(t, ":7101", cfg.Metrics.Addr, "env overrides file")
	assert.Equal(t, ":7200", cfg.HTTP.Addr, "flags override env")
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cret")

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(Options{File: filepath.Join(t.TempDir(), "absent.yaml")})
		errutil.AssertErrorCode(t, err, "CONFIG_READ_FAILED")
	})

	t.Run("unknown key rejected by schema", func(t *testing.T) {
		_, err := Load(Options{File: writeFile(t, "bogus: 1\n")})
		errutil.AssertErrorCode(t, err, "CONFIG_SCHEMA_INVALID")
	})

	t.Run("enum rejected by schema", func(t *testing.T) {
		_, err := Load(Options{File: writeFile(t, "log:\n  format: xml\n")})
		errutil.AssertErrorCode(t, err, "CONFIG_SCHEMA_INVALID")
	})

	t.Run("invalid env value", func(t *testing.T) {
		t.Setenv("CENTRALCOMMAND_ACCOUNTS__RESET_TTL", "-5m")
		_, err := Load(Options{SkipDefaultFile: true})
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		errutil.AssertErrorContext(t, err, "field", "accounts.reset_ttl")
	})

	t.Run("undecodable env value", func(t *testing.T) {
		t.Setenv("EMAIL_PORT", "smtp")
		_, err := Load(Options{SkipDefaultFile: true})
		errutil.AssertErrorCode(t, err, "CONFIG_DECODE_FAILED")
	})
}

func TestLoad_DefaultFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "centralcommand"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "centralcommand", "config.yaml"),
		[]byte("secret_key: xdg\n"), 0o600))

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "xdg", cfg.SecretKey)

	_, err = Load(Options{SkipDefaultFile: true})
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"secret key required", func(c *Config) { c.SecretKey = "" }, "secret_key"},
		{"secret key optional in debug", func(c *Config) { c.SecretKey = ""; c.Debug = true }, ""},
		{"url replaces parts", func(c *Config) { c.Database = DatabaseConfig{URL: "postgresql://db/cc"} }, ""},
		{"url must be postgres", func(c *Config) { c.Database.URL = "mysql://db/cc" }, "database.url"},
		{"host required", func(c *Config) { c.Database.Host = "" }, "database.host"},
		{"name required", func(c *Config) { c.Database.Name = "" }, "database.name"},
		{"db port range", func(c *Config) { c.Database.Port = 70000 }, "database.port"},
		{"token ttl positive", func(c *Config) { c.Accounts.TokenTTL = 0 }, "accounts.token_ttl"},
		{"confirmation ttl positive", func(c *Config) { c.Accounts.ConfirmationTTL = -time.Hour }, "accounts.confirmation_ttl"},
		{"email port range", func(c *Config) { c.Email.Port = 0 }, "email.port"},
		{"sender required with host", func(c *Config) { c.Email.Host = "smtp" }, "email.from"},
		{"sender from user", func(c *Config) { c.Email.Host = "smtp"; c.Email.User = "a@b.test" }, ""},
		{"website must be absolute", func(c *Config) { c.Website.URL = "unitystation.org" }, "website.url"},
		{"website must be http", func(c *Config) { c.Website.URL = "ftp://unitystation.org/" }, "website.url"},
		{"static url slashes", func(c *Config) { c.Static.URL = "static" }, "static.url"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"http addr", func(c *Config) { c.HTTP.Addr = "" }, "http.addr"},
		{"language tag", func(c *Config) { c.I18n.Language = "not a tag!" }, "i18n.language"},
		{"override language tag", func(c *Config) {
			c.I18n.Messages = map[string]map[string]string{"??": {"k": "v"}}
		}, "i18n.messages"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			errutil.AssertErrorContext(t, err, "field", tt.field)
		})
	}
}

func TestWebsiteConfig_URLJoin(t *testing.T) {
	tests := []struct {
		base, suffix, want string
	}{
		{"https://unitystation.org/", "accounts/reset-password/", "https://unitystation.org/accounts/reset-password/"},
		{"https://unitystation.org/site", "reset/", "https://unitystation.org/reset/"},
		{"https://unitystation.org/site/", "/reset/", "https://unitystation.org/reset/"},
		{"https://unitystation.org/", "https://other.test/reset/", "https://other.test/reset/"},
		{"https://unitystation.org/", "", "https://unitystation.org/"},
	}
	for _, tt := range tests {
		t.Run(tt.base+"+"+tt.suffix, func(t *testing.T) {
			w := WebsiteConfig{URL: tt.base, PassResetURLSuffix: tt.suffix}
			got, err := w.ResetURL()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p%40ss@h:1/db?sslmode=disable",
		DatabaseConfig{Host: "h", Port: 1, Name: "db", User: "u", Password: "p@ss", SSLMode: "disable"}.DSN())
	assert.Equal(t, "postgres://h:1/db",
		DatabaseConfig{Host: "h", Port: 1, Name: "db"}.DSN())
	assert.Equal(t, "postgres://x/y",
		DatabaseConfig{URL: "postgres://x/y", Host: "ignored"}.DSN())
}

func TestConfig_Redacted(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Password = "db-pass"
	cfg.Database.URL = "postgres://cc:url-pass@db/cc"
	cfg.Email.Password = "mail-pass"

	out := cfg.Redacted()
	assert.Equal(t, redacted, out.SecretKey)
	assert.Equal(t, redacted, out.Database.Password)
	assert.Equal(t, redacted, out.Email.Password)
	assert.Equal(t, "postgres://cc:xxxxx@db/cc", out.Database.URL)
	assert.NotContains(t, out.Database.URL, "url-pass")

	assert.Equal(t, "s3cret", cfg.SecretKey, "original is untouched")
	assert.Equal(t, "postgres://cc:url-pass@db/cc", cfg.Database.URL)
	assert.Equal(t, "mail-pass", cfg.Email.Password)
}

func TestConfig_Redacted_URLWithoutPassword(t *testing.T) {
	cfg := validConfig()
	cfg.Database.URL = "postgres://cc@db/cc?sslmode=disable"

	assert.Equal(t, "postgres://cc@db/cc?sslmode=disable", cfg.Redacted().Database.URL)
}
