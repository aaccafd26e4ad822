// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/unitystation/centralcommand/internal/accounts"
	"github.com/unitystation/centralcommand/internal/accounts/postgres"
	"github.com/unitystation/centralcommand/internal/api"
	"github.com/unitystation/centralcommand/internal/config"
	"github.com/unitystation/centralcommand/internal/i18n"
	"github.com/unitystation/centralcommand/internal/logging"
	"github.com/unitystation/centralcommand/internal/mail"
	"github.com/unitystation/centralcommand/pkg/errutil"
)

// purgeInterval is how often expired tokens and links are deleted.
const purgeInterval = time.Hour

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the accounts API",
		Long: `Serve the accounts HTTP API. Metrics and health probes are served
on a separate listener unless metrics.addr is empty.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cmd, cfg, nil)
		},
	}
}

// runServe starts the API with injectable dependencies and blocks until
// ctx is cancelled, a signal arrives or a server fails.
func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, deps *ServeDeps) error {
	if ctx == nil {
		ctx = context.Background()
	}
	deps = deps.withDefaults()

	logger := logging.SetDefault(logging.ServiceName, version, logging.Options{
		Format: cfg.Log.Format,
		Level:  cfg.Log.Level,
	})
	logger.Info("starting central command",
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"debug", cfg.Debug,
	)

	db, err := deps.DatabaseFactory(ctx, cfg.Database.DSN())
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()
	logger.Info("connected to database")

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var obsServer ObservabilityServer
	var recorder accounts.Recorder
	var observer api.Observer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, db.Ping)
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		recorder = obsServer.Metrics()
		observer = obsServer.Metrics()
	}

	app, err := buildApp(cfg, db, deps, recorder, observer, logger)
	if err != nil {
		stopObservability(obsServer)
		return err
	}

	listener, err := deps.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		stopObservability(obsServer)
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}
	httpSrv := &http.Server{
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	purgeDone := make(chan struct{})
	go func() {
		defer close(purgeDone)
		app.purgeLoop(ctx, purgeInterval)
	}()

	cmd.Printf("Central Command listening on %s\n", listener.Addr())
	logger.Info("api server listening", "addr", listener.Addr().String())

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		runErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}
	<-purgeDone

	logger.Info("shutdown complete")
	return runErr
}

// app is the wired account stack.
type app struct {
	handler  http.Handler
	accounts *accounts.Service
	resets   *accounts.PasswordResetService
	logger   *slog.Logger
}

// buildApp wires repositories, services and the router.
func buildApp(cfg *config.Config, db Database, deps *ServeDeps, recorder accounts.Recorder, observer api.Observer, logger *slog.Logger) (*app, error) {
	translator, err := i18n.New(cfg.I18n.Messages)
	if err != nil {
		return nil, err
	}
	settings, err := cfg.AccountSettings()
	if err != nil {
		return nil, err
	}
	mailer, err := deps.MailerFactory(cfg.Email, logger)
	if err != nil {
		return nil, err
	}
	notifier, err := mail.NewAccountNotifier(mailer, translator, cfg.I18n.Tag(), settings)
	if err != nil {
		return nil, err
	}

	svcDeps := accounts.Deps{
		Accounts:      postgres.NewAccountRepository(db),
		Tokens:        postgres.NewTokenRepository(db),
		Confirmations: postgres.NewConfirmationRepository(db),
		Hasher:        accounts.NewArgon2idHasher(),
		Notifier:      notifier,
		Recorder:      recorder,
		Logger:        logger,
	}
	svc, err := accounts.NewService(svcDeps, settings)
	if err != nil {
		return nil, err
	}
	resets, err := accounts.NewPasswordResetService(svcDeps, postgres.NewResetRepository(db), settings)
	if err != nil {
		return nil, err
	}

	handler, err := api.NewRouter(api.Config{
		Accounts:     svc,
		Resets:       resets,
		Translator:   translator,
		Observer:     observer,
		Logger:       logger,
		AllowedHosts: cfg.AllowedHosts,
		StaticURL:    cfg.Static.URL,
		StaticRoot:   cfg.Static.Root,
	})
	if err != nil {
		return nil, err
	}
	return &app{handler: handler, accounts: svc, resets: resets, logger: logger}, nil
}

// newMailer sends through SMTP when a host is configured and logs
// messages otherwise.
func newMailer(cfg config.EmailConfig, logger *slog.Logger) (mail.Mailer, error) {
	if cfg.Host == "" {
		logger.Warn("email.host is empty, emails will be logged instead of sent")
		return mail.NewLogMailer(logger), nil
	}
	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		From:     cfg.SenderAddress(),
		UseTLS:   cfg.UseTLS,
		Timeout:  cfg.Timeout,
	})
}

// purgeLoop deletes expired records every interval until ctx is done.
func (a *app) purgeLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.purge(ctx)
		}
	}
}

func (a *app) purge(ctx context.Context) {
	result, err := a.accounts.PurgeExpired(ctx)
	if err != nil {
		errutil.LogError(a.logger, "failed to purge expired account records", err)
	}
	resets, err := a.resets.PurgeExpired(ctx)
	if err != nil {
		errutil.LogError(a.logger, "failed to purge expired password resets", err)
	}
	a.logger.Debug("purged expired records",
		"tokens", result.Tokens,
		"confirmations", result.Confirmations,
		"resets", resets,
	)
}

func stopObservability(s ObservabilityServer) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		slog.Warn("failed to stop observability server during cleanup", "error", err)
	}
}

// monitorServerErrors cancels ctx when a server reports a failure. It
// exits when the channel closes or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
