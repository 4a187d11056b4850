// Package cmd implements the command-line interface for agendabot.
//
// This package provides the following commands:
//   - serve: Start the WhatsApp webhook server
//   - simulate: Run a single turn locally and print the reply
//   - auth-url: Print the calendar authorization link for a number
//   - generate-key: Print a new session encryption key
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
// Configuration comes from flags, then environment variables, then an
// optional .env file.
package cmd
