package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyService   = "service"
	KeyUserHash  = "user_hash"
	KeyChannel   = "channel"
	KeyIntent    = "intent"
	KeyTurnID    = "turn_id"
	KeyEventID   = "event_id"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to avoid circular dependencies (instrumentation imports logging).
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithService returns a logger with the service attribute set.
func WithService(logger *slog.Logger, service string) *slog.Logger {
	return logger.With(slog.String(KeyService, service))
}

// WithTurn returns a logger carrying the turn ID and the hashed sender.
func WithTurn(logger *slog.Logger, turnID, from string) *slog.Logger {
	return logger.With(slog.String(KeyTurnID, turnID), UserHash(from))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Service returns a slog attribute for the service name.
func Service(svc string) slog.Attr {
	return slog.String(KeyService, svc)
}

// Intent returns a slog attribute for a resolved intent.
func Intent(intent string) slog.Attr {
	return slog.String(KeyIntent, intent)
}

// EventID returns a slog attribute for a calendar event identifier.
func EventID(id string) slog.Attr {
	return slog.String(KeyEventID, id)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
// This allows safely passing Err(maybeNilErr) without adding empty attributes.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeUser returns a hashed representation of a user identity
// (a WhatsApp address such as "whatsapp:+56912345678") for logging purposes.
// This allows correlation of log entries without exposing phone numbers.
func AnonymizeUser(id string) string {
	if id == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(id))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute with the anonymized user identity.
//
// Usage:
//
//	logger.Info("turn completed", logging.UserHash(from))
func UserHash(id string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeUser(id))
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content,
// as even partial token prefixes (like JWT headers) can aid attacks.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// ExtractChannel returns the channel prefix of an address ("whatsapp" for
// "whatsapp:+56912345678"). Addresses without a prefix yield "".
func ExtractChannel(id string) string {
	prefix, _, found := strings.Cut(id, ":")
	if !found || prefix == "" {
		return ""
	}
	return prefix
}

// Channel returns a slog attribute for the messaging channel (lower cardinality than the full address).
func Channel(id string) slog.Attr {
	return slog.String(KeyChannel, ExtractChannel(id))
}
