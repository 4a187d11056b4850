package google

import calendar "google.golang.org/api/calendar/v3"

// DefaultOAuthScopes are the scopes requested during consent. The assistant
// only reads and writes events on the user's calendars.
var DefaultOAuthScopes = []string{
	calendar.CalendarScope,
}
