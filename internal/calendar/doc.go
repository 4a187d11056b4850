// Package calendar is the assistant's gateway to Google Calendar.
//
// A Client performs create, patch, delete, list and get on behalf of a user
// identified by their stored credential. Any failure comes back as an
// *APIError; a successful List with no events is an empty slice, never nil.
//
// Timestamps travel as local wall-clock strings (LocalLayout) interpreted in
// the configured civil time zone:
//
//	end, _ := calendar.DeriveEndTime("2024-01-10T09:00:00", loc)
//	// end == "2024-01-10T10:00:00"
package calendar
