package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/agendabot/internal/assistant"
	"github.com/teemow/agendabot/internal/instrumentation"
	"github.com/teemow/agendabot/internal/logging"
	"github.com/teemow/agendabot/internal/server"
	"github.com/teemow/agendabot/internal/whatsapp"
)

func newServeCmd() *cobra.Command {
	cfg := &AppConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the WhatsApp webhook server",
		Long: `Start the HTTP server that receives WhatsApp messages from Twilio, turns
them into Google Calendar actions and replies over WhatsApp.

Routes:
  POST /whatsapp         Twilio webhook
  GET  /auth             Start Google authorization for a WhatsApp number
  GET  /oauth2callback   Google OAuth redirect target
  GET  /healthz, /readyz Health probes

Every flag can also be set through the environment variable named in its
help text. A .env file in the working directory is loaded on start.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvVars(cmd, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runServe(cfg)
		},
	}

	bindFlags(cmd, cfg)
	return cmd
}

func twilioNotifier(cfg whatsapp.Config) notifierFactory {
	return func(metrics *instrumentation.Metrics, logger *slog.Logger) (assistant.Notifier, error) {
		n, err := whatsapp.NewTwilioNotifier(cfg, whatsapp.WithMetrics(metrics), whatsapp.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return n, nil
	}
}

func runServe(cfg *AppConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	a, err := newApp(ctx, cfg, logger, twilioNotifier(cfg.Twilio))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := a.close(shutdownCtx); err != nil {
			logger.Error("error during shutdown", logging.Err(err))
		}
	}()

	srvConfig := server.Config{
		Addr:      cfg.HTTPAddr,
		PublicURL: cfg.BaseURL,
		Metrics:   a.provider.Metrics(),
		Logger:    logger,
	}
	if cfg.ValidateTwilioSignature {
		srvConfig.SignatureValidator = whatsapp.NewSignatureValidator(cfg.Twilio.AuthToken)
	}

	health := server.NewHealthChecker(server.Check{Name: "session_store", Fn: a.store.Ping})
	srv, err := server.New(srvConfig, server.Deps{
		Turns:       a.dispatcher,
		Auth:        a.oauth,
		Credentials: a.store,
		Notifier:    a.notifier,
		Health:      health,
	})
	if err != nil {
		return err
	}

	var metricsServer *server.MetricsServer
	if a.provider.ServesPrometheus() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.MetricsAddr,
			InstrumentationProvider: a.provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", logging.Err(err))
			}
		}()
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	logger.Info("agendabot started",
		"addr", cfg.HTTPAddr,
		"base_url", cfg.BaseURL,
		"session_store", cfg.SessionStore,
		"time_zone", cfg.CalendarTimeZone,
		"signature_validation", cfg.ValidateTwilioSignature,
		"serialize_turns", cfg.SerializeTurns)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancelShutdown()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("error shutting down HTTP server: %w", err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("error shutting down metrics server: %w", err))
		}
	}
	logger.Info("agendabot stopped")
	return errors.Join(errs...)
}
