// Package logging provides structured logging utilities for agendabot.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog (text or JSON handlers)
//   - PII sanitization (phone number hashing)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger scoped to one conversational turn:
//
//	logger := logging.WithTurn(slog.Default(), turnID, from)
//	logger.Info("intent resolved", logging.Intent("create"))
//
// # Security Considerations
//
//   - WhatsApp addresses are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
package logging
