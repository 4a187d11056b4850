package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/agendabot/internal/assistant"
	"github.com/teemow/agendabot/internal/instrumentation"
	"github.com/teemow/agendabot/internal/logging"
	"github.com/teemow/agendabot/internal/whatsapp"
)

func newSimulateCmd() *cobra.Command {
	cfg := &AppConfig{}
	var from string

	cmd := &cobra.Command{
		Use:   "simulate --from <number> <message...>",
		Short: "Run a single turn locally and print the reply",
		Long: `Run one conversational turn exactly as the webhook would, but print the
reply instead of sending it over WhatsApp. The calendar, language model and
session store are the real ones, so a persistent session store lets several
invocations form a conversation.

Example:
  agendabot simulate --from +56911111111 "lunch with Ana tomorrow at 1pm"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvVars(cmd, cfg); err != nil {
				return err
			}
			if from == "" {
				return fmt.Errorf("--from is required")
			}
			if err := cfg.validateCore(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runSimulate(cmd, cfg, whatsapp.Address(from), strings.Join(args, " "))
		},
	}

	bindFlags(cmd, cfg)
	cmd.Flags().StringVar(&from, "from", "", "Sender phone number")
	return cmd
}

func runSimulate(cmd *cobra.Command, cfg *AppConfig, from, text string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := logging.SetupWriter(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	console := whatsapp.NewConsoleNotifier(cmd.OutOrStdout())

	a, err := newApp(ctx, cfg, logger, func(*instrumentation.Metrics, *slog.Logger) (assistant.Notifier, error) {
		return console, nil
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(context.Background()); err != nil {
			logger.Warn("error during shutdown", logging.Err(err))
		}
	}()

	outcome := a.dispatcher.HandleMessage(ctx, from, text)
	fmt.Fprintf(cmd.OutOrStdout(), "outcome: %s\n", outcome)
	return nil
}
