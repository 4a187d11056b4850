package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teemow/agendabot/internal/assistant"
	"github.com/teemow/agendabot/internal/calendar"
	"github.com/teemow/agendabot/internal/gemini"
	"github.com/teemow/agendabot/internal/google"
	"github.com/teemow/agendabot/internal/instrumentation"
	"github.com/teemow/agendabot/internal/intent"
	"github.com/teemow/agendabot/internal/session"
)

// app holds the long-lived clients shared by all turns.
type app struct {
	provider   *instrumentation.Provider
	store      session.Store
	oauth      *google.OAuth
	notifier   assistant.Notifier
	dispatcher *assistant.Dispatcher
}

// notifierFactory builds the reply channel once metrics are available.
type notifierFactory func(metrics *instrumentation.Metrics, logger *slog.Logger) (assistant.Notifier, error)

// newApp constructs every collaborator once and wires the dispatcher.
// newNotifier selects how replies are delivered for the command being run.
func newApp(ctx context.Context, cfg *AppConfig, logger *slog.Logger, newNotifier notifierFactory) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	instrConfig.Enabled = cfg.MetricsEnabled
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	a := &app{provider: provider}

	sessionConfig, err := cfg.SessionConfig()
	if err != nil {
		_ = a.close(ctx)
		return nil, err
	}
	a.store, err = session.Open(ctx, sessionConfig)
	if err != nil {
		_ = a.close(ctx)
		return nil, err
	}
	logger.Info("session store opened", "backend", sessionConfig.Backend, "encrypted", len(sessionConfig.EncryptionKey) > 0)

	a.oauth = google.NewOAuth(cfg.Google)

	gateway, err := calendar.NewClient(a.oauth, calendar.Config{
		CalendarID: cfg.CalendarID,
		Location:   loc,
		Metrics:    provider.Metrics(),
	})
	if err != nil {
		_ = a.close(ctx)
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	model, err := gemini.NewClient(ctx, gemini.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
	if err != nil {
		_ = a.close(ctx)
		return nil, err
	}
	resolver, err := intent.NewResolver(model, intent.Config{
		Location:          loc,
		ValidationRetries: cfg.ValidationRetries,
		ModelName:         model.Model(),
		Metrics:           provider.Metrics(),
		Logger:            logger,
	})
	if err != nil {
		_ = a.close(ctx)
		return nil, err
	}

	a.notifier, err = newNotifier(provider.Metrics(), logger)
	if err != nil {
		_ = a.close(ctx)
		return nil, err
	}

	a.dispatcher, err = assistant.NewDispatcher(a.store, resolver, gateway, a.notifier, assistant.Config{
		BaseURL:        cfg.BaseURL,
		Location:       loc,
		SerializeTurns: cfg.SerializeTurns,
		Metrics:        provider.Metrics(),
		Auditor:        provider.TurnAuditor(),
		Logger:         logger,
	})
	if err != nil {
		_ = a.close(ctx)
		return nil, err
	}
	return a, nil
}

// close releases the store and flushes telemetry.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.oauth != nil {
		a.oauth.CloseIdleConnections()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close session store: %w", err))
		}
	}
	if a.provider != nil {
		if err := a.provider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
