// Package google wraps the Google OAuth2 flow used to link a WhatsApp
// identity to a Google Calendar.
//
// The consent URL carries the sender identity as opaque state. The code
// exchange yields a refresh token, which is the only credential agendabot
// persists. Access tokens are minted on demand from it through the
// TokenProvider interface.
package google
