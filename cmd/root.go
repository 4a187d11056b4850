package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var envFile string

// rootCmd represents the base command for the agendabot application
var rootCmd = &cobra.Command{
	Use:   "agendabot",
	Short: "WhatsApp assistant for Google Calendar",
	Long: `agendabot manages a Google Calendar through free-form WhatsApp messages.

Messages are classified by a language model into create, edit, delete and
query actions which are then carried out against the user's calendar.

It can run as:
  - A webhook server receiving Twilio WhatsApp messages (default)
  - A local simulator that runs a single turn and prints the reply`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnvFile(envFile)
	},
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "agendabot version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadEnvFile populates the environment from a dotenv file. Variables that
// are already set win. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before reading configuration")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newAuthURLCmd())
	rootCmd.AddCommand(newGenerateKeyCmd())
	rootCmd.AddCommand(newVersionCmd())
}
