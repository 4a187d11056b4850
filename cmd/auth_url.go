package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/agendabot/internal/assistant"
	"github.com/teemow/agendabot/internal/google"
	"github.com/teemow/agendabot/internal/whatsapp"
)

func newAuthURLCmd() *cobra.Command {
	cfg := &AppConfig{}
	var handoff bool

	cmd := &cobra.Command{
		Use:   "auth-url <number>",
		Short: "Print the Google consent URL for a WhatsApp number",
		Long: `Print the Google consent URL that connects a WhatsApp number to its calendar.

With --handoff the server's /auth link is printed instead, which is the link
the assistant itself sends over WhatsApp.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvVars(cmd, cfg); err != nil {
				return err
			}
			from := whatsapp.Address(args[0])
			if handoff {
				if cfg.BaseURL == "" {
					return fmt.Errorf("base URL is required (--base-url or BASE_URL)")
				}
				fmt.Fprintln(cmd.OutOrStdout(), assistant.AuthURL(cfg.BaseURL, from))
				return nil
			}
			if err := cfg.Google.Validate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), google.NewOAuth(cfg.Google).AuthURL(from))
			return nil
		},
	}

	bindFlags(cmd, cfg)
	cmd.Flags().BoolVar(&handoff, "handoff", false, "Print the /auth handoff link instead of the consent URL")
	return cmd
}
