package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// EventDetails is the payload for creating or patching an event.
//
// StartTime and EndTime are local timestamps in LocalLayout, interpreted in
// the gateway's civil time zone. RFC 3339 values with an offset are also
// accepted. RecurrenceRule is an RRULE body with or without the "RRULE:"
// prefix. Empty fields are absent.
type EventDetails struct {
	Title          string `json:"title,omitempty"`
	StartTime      string `json:"startTime,omitempty"`
	EndTime        string `json:"endTime,omitempty"`
	Location       string `json:"location,omitempty"`
	Description    string `json:"description,omitempty"`
	RecurrenceRule string `json:"recurrenceRule,omitempty"`
}

// IsEmpty reports whether no field is set.
func (d EventDetails) IsEmpty() bool {
	return d == EventDetails{}
}

// QueryWindow bounds a List call. Both ends use the same formats as
// EventDetails timestamps.
type QueryWindow struct {
	TimeMin string `json:"timeMin,omitempty"`
	TimeMax string `json:"timeMax,omitempty"`
}

// Complete reports whether both bounds are present.
func (w QueryWindow) Complete() bool {
	return w.TimeMin != "" && w.TimeMax != ""
}

// Event is a calendar event as returned by Google.
type Event struct {
	ID          string
	Title       string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Location    string
	Description string
	HTMLLink    string
}

// toEvent converts a Google Calendar event, expressing times in loc.
func toEvent(event *calendar.Event, loc *time.Location) Event {
	if event == nil {
		return Event{}
	}

	ev := Event{
		ID:          event.Id,
		Title:       event.Summary,
		Location:    event.Location,
		Description: event.Description,
		HTMLLink:    event.HtmlLink,
	}

	ev.Start, ev.AllDay = parseEventDateTime(event.Start, loc)
	ev.End, _ = parseEventDateTime(event.End, loc)
	return ev
}

// parseEventDateTime returns the instant of edt in loc and whether it is an
// all-day date.
func parseEventDateTime(edt *calendar.EventDateTime, loc *time.Location) (time.Time, bool) {
	if edt == nil {
		return time.Time{}, false
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t.In(loc), false
		}
		if t, err := time.ParseInLocation(LocalLayout, edt.DateTime, loc); err == nil {
			return t, false
		}
		return time.Time{}, false
	}
	if edt.Date != "" {
		if t, err := time.ParseInLocation(DateLayout, edt.Date, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
