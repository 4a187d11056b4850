package whatsapp

import (
	"fmt"
	"strings"
)

// AddressPrefix marks a Twilio address as a WhatsApp channel.
const AddressPrefix = "whatsapp:"

// Address returns number in the whatsapp:+E164 form Twilio expects.
func Address(number string) string {
	number = strings.TrimSpace(number)
	if number == "" || strings.HasPrefix(number, AddressPrefix) {
		return number
	}
	return AddressPrefix + number
}

// SendError represents an error that occurred while delivering a message.
type SendError struct {
	// Op is the operation that failed (e.g., "send", "initialize")
	Op string

	// To is the recipient address
	To string

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *SendError) Error() string {
	if e.To != "" {
		return fmt.Sprintf("whatsapp %s (to: %s): %v", e.Op, e.To, e.Err)
	}
	return fmt.Sprintf("whatsapp %s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *SendError) Unwrap() error {
	return e.Err
}
