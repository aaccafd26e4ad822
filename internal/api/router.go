// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

// Package api serves the accounts HTTP API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/unitystation/centralcommand/internal/accounts"
	"github.com/unitystation/centralcommand/internal/i18n"
	"github.com/unitystation/centralcommand/internal/identifier"
)

// AccountService is the account functionality the API exposes.
// *accounts.Service satisfies it.
type AccountService interface {
	CheckIdentifier(ident string) identifier.Outcome
	Register(ctx context.Context, in accounts.RegisterInput) (*accounts.Account, error)
	ConfirmAccount(ctx context.Context, token string) (*accounts.Account, error)
	ResendConfirmation(ctx context.Context, email string) error
	Login(ctx context.Context, in accounts.LoginInput) (*accounts.LoginResult, error)
	Authenticate(ctx context.Context, token string) (*accounts.Account, *accounts.AuthToken, error)
	Logout(ctx context.Context, tokenID ulid.ULID) error
	LogoutAll(ctx context.Context, accountID ulid.ULID) (int64, error)
	UpdateAccount(ctx context.Context, id ulid.ULID, in accounts.UpdateInput) (*accounts.Account, error)
}

// ResetService is the password reset functionality the API exposes.
// *accounts.PasswordResetService satisfies it.
type ResetService interface {
	RequestReset(ctx context.Context, email string) error
	ValidateToken(ctx context.Context, token string) (ulid.ULID, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Observer records completed requests. *observability.Metrics satisfies it.
type Observer interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// Config wires the router.
type Config struct {
	Accounts   AccountService
	Resets     ResetService
	Translator *i18n.Translator
	// Identifiers validates identifiers in request bodies. Defaults to
	// identifier.Default.
	Identifiers identifier.Validator
	// Observer is optional.
	Observer Observer
	Logger   *slog.Logger
	// AllowedHosts lists accepted Host header values. "*" accepts any
	// host and a leading dot matches a domain and its subdomains.
	AllowedHosts []string
	// StaticURL and StaticRoot serve files from a directory. An empty
	// StaticRoot disables static files.
	StaticURL  string
	StaticRoot string
	// SlowThreshold logs slower requests at warn level. Defaults to 500ms.
	SlowThreshold time.Duration
}

// handler holds the collaborators shared by the endpoint handlers.
type handler struct {
	accounts    AccountService
	resets      ResetService
	translator  *i18n.Translator
	identifiers identifier.Validator
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewRouter builds the API handler.
func NewRouter(cfg Config) (http.Handler, error) {
	if cfg.Accounts == nil {
		return nil, oops.Code("API_CONFIG_INVALID").Errorf("account service is required")
	}
	if cfg.Resets == nil {
		return nil, oops.Code("API_CONFIG_INVALID").Errorf("reset service is required")
	}
	if cfg.Translator == nil {
		return nil, oops.Code("API_CONFIG_INVALID").Errorf("translator is required")
	}
	if cfg.Identifiers == nil {
		cfg.Identifiers = identifier.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = 500 * time.Millisecond
	}

	v, err := newValidate(cfg.Identifiers)
	if err != nil {
		return nil, err
	}
	hosts, err := compileHosts(cfg.AllowedHosts)
	if err != nil {
		return nil, err
	}
	h := &handler{
		accounts:    cfg.Accounts,
		resets:      cfg.Resets,
		translator:  cfg.Translator,
		identifiers: cfg.Identifiers,
		validate:    v,
		logger:      cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(
		chiMiddleware.RequestID,
		chiMiddleware.RealIP,
		chiMiddleware.StripSlashes,
		requestLogger(cfg.Logger, cfg.SlowThreshold),
		observe(cfg.Observer),
		chiMiddleware.Recoverer,
		h.language,
		h.allowedHosts(hosts),
	)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		h.writeError(w, req, oops.Code("ROUTE_NOT_FOUND").With("path", req.URL.Path).Errorf("no route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		h.writeError(w, req, oops.Code("METHOD_NOT_ALLOWED").With("method", req.Method).Errorf("method not allowed"))
	})

	r.Route("/accounts", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/confirm-account", h.confirmAccount)
		r.Post("/resend-confirmation", h.resendConfirmation)
		r.Post("/reset-password", h.requestReset)
		r.Post("/reset-password/validate-token", h.validateResetToken)
		r.Post("/reset-password/confirm", h.confirmReset)
		r.Post("/validate-identifier", h.validateIdentifier)

		r.Group(func(r chi.Router) {
			r.Use(h.tokenAuth)
			r.Post("/logout", h.logout)
			r.Post("/logoutall", h.logoutAll)
			r.Get("/me", h.me)
			r.Patch("/me", h.updateMe)
		})
	})

	if cfg.StaticRoot != "" {
		if err := mountStatic(r, cfg.StaticURL, cfg.StaticRoot); err != nil {
			return nil, err
		}
	}

	return r, nil
}
