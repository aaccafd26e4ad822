// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/unitystation/centralcommand/internal/xdg"
)

// EnvPrefix namespaces environment variables that map onto any key:
// CENTRALCOMMAND_HTTP__ADDR sets http.addr.
const EnvPrefix = "CENTRALCOMMAND_"

// legacyEnv maps the flat environment variable names used by existing
// deployments onto config keys.
var legacyEnv = map[string]string{
	"SECRET_KEY":                      "secret_key",
	"DEBUG":                           "debug",
	"DJANGO_DEBUG":                    "debug",
	"ALLOWED_HOSTS":                   "allowed_hosts",
	"DATABASE_URL":                    "database.url",
	"DB_HOST":                         "database.host",
	"DB_PORT":                         "database.port",
	"DB_NAME":                         "database.name",
	"DB_USER":                         "database.user",
	"DB_PASSWORD":                     "database.password",
	"DB_SSLMODE":                      "database.sslmode",
	"EMAIL_HOST":                      "email.host",
	"EMAIL_PORT":                      "email.port",
	"EMAIL_HOST_USER":                 "email.user",
	"EMAIL_HOST_PASSWORD":             "email.password",
	"EMAIL_USE_TLS":                   "email.use_tls",
	"EMAIL_FROM":                      "email.from",
	"DEFAULT_FROM_EMAIL":              "email.from",
	"WEBSITE_URL":                     "website.url",
	"PASS_RESET_URL_SUFFIX":           "website.pass_reset_url_suffix",
	"ACCOUNT_CONFIRMATION_URL_SUFFIX": "website.account_confirmation_url_suffix",
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"debug":        "debug",
	"database-url": "database.url",
	"http-addr":    "http.addr",
	"metrics-addr": "metrics.addr",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"static-root":  "static.root",
}

func defaults() map[string]any {
	return map[string]any{
		"secret_key":                              "",
		"debug":                                   false,
		"database.host":                           "localhost",
		"database.port":                           5432,
		"database.name":                           "centralcommand",
		"database.user":                           "postgres",
		"database.sslmode":                        "prefer",
		"accounts.token_ttl":                      "720h",
		"accounts.confirmation_ttl":               "24h",
		"accounts.reset_ttl":                      "60m",
		"accounts.require_confirmation":           true,
		"email.port":                              1337,
		"email.use_tls":                           true,
		"email.timeout":                           "10s",
		"website.url":                             "http://localhost:8000/",
		"website.pass_reset_url_suffix":           "reset-password/",
		"website.account_confirmation_url_suffix": "confirm-account/",
		"static.url":                              "/static/",
		"static.root":                             "",
		"log.format":                              "json",
		"log.level":                               "info",
		"http.addr":                               ":8000",
		"http.shutdown_timeout":                   "15s",
		"metrics.addr":                            ":9100",
		"i18n.language":                           "en",
	}
}

// Options control Load.
type Options struct {
	// File is an explicit config file. It must exist.
	File string
	// SkipDefaultFile disables the XDG config file lookup when File is empty.
	SkipDefaultFile bool
	// Flags are applied last. Only flags the user set override values.
	Flags *pflag.FlagSet
}

// Load builds a validated Config.
func Load(opts Options) (*Config, error) {
	k, err := load(opts)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func load(opts Options) (*koanf.Koanf, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	path, err := configPath(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		fp := file.Provider(path)
		data, err := fp.ReadBytes()
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
		if err := ValidateSchema(data); err != nil {
			return nil, oops.With("path", path).Wrap(err)
		}
		if err := k.Load(fp, yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "file").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, flagKey(opts.Flags)), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}
	return k, nil
}

// configPath returns the file to load: the explicit one, or the XDG
// default when it exists.
func configPath(opts Options) (string, error) {
	if opts.File != "" {
		return opts.File, nil
	}
	if opts.SkipDefaultFile {
		return "", nil
	}
	path, err := xdg.ConfigFile()
	if err != nil {
		// No HOME: there is no default file to read.
		return "", nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
	}
	return path, nil
}

// envKey maps an environment variable onto a config key. Unknown and
// empty variables map to "" and are skipped.
func envKey(name, value string) (string, any) {
	if value == "" {
		return "", nil
	}
	if key, ok := legacyEnv[name]; ok {
		if key == "allowed_hosts" {
			return key, splitList(value)
		}
		return key, value
	}
	if rest, ok := strings.CutPrefix(name, EnvPrefix); ok && rest != "" {
		return strings.ReplaceAll(strings.ToLower(rest), "__", "."), value
	}
	return "", nil
}

func flagKey(flags *pflag.FlagSet) func(*pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(flags, f)
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Bool("debug", false, "enable debug mode")
	fs.String("database-url", "", "postgres connection URL")
	fs.String("http-addr", "", "API listen address")
	fs.String("metrics-addr", "", "metrics and health listen address")
	fs.String("log-format", "", "log format (json, text)")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("static-root", "", "directory of static files to serve")
}
