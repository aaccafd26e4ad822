// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package main

import (
	"context"
	"log/slog"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/unitystation/centralcommand/internal/config"
	"github.com/unitystation/centralcommand/internal/mail"
	"github.com/unitystation/centralcommand/internal/observability"
	"github.com/unitystation/centralcommand/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// DatabaseFactory opens the database.
	// Default: store.Open
	DatabaseFactory func(ctx context.Context, dsn string) (Database, error)

	// MailerFactory creates the mailer for account emails.
	// Default: newMailer
	MailerFactory func(cfg config.EmailConfig, logger *slog.Logger) (mail.Mailer, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// Listen creates the API listener.
	// Default: net.Listen
	Listen func(network, address string) (net.Listener, error)
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.DatabaseFactory == nil {
		out.DatabaseFactory = func(ctx context.Context, dsn string) (Database, error) {
			return store.Open(ctx, dsn)
		}
	}
	if out.MailerFactory == nil {
		out.MailerFactory = newMailer
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, checker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, checker)
		}
	}
	if out.Listen == nil {
		out.Listen = net.Listen
	}
	return &out
}

// Database wraps the methods used from *pgxpool.Pool.
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}
