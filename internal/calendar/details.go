package calendar

import (
	"fmt"
	"strings"
	"time"
)

const (
	// LocalLayout is the wall-clock timestamp format without offset used
	// throughout the assistant.
	LocalLayout = "2006-01-02T15:04:05"

	// DateLayout is the all-day date format.
	DateLayout = "2006-01-02"

	// DefaultDuration is applied when an event has a start but no end.
	DefaultDuration = time.Hour

	// DefaultTimeZone is the civil time zone when none is configured.
	DefaultTimeZone = "America/Santiago"
)

var parseLayouts = []string{
	LocalLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// IsDate reports whether value is a plain all-day date in DateLayout.
func IsDate(value string) bool {
	value = strings.TrimSpace(value)
	if len(value) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, value)
	return err == nil
}

// ParseTime parses a local timestamp in loc, or an RFC 3339 timestamp which
// is then converted to loc. An all-day date parses to local midnight.
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if IsDate(value) {
		return time.ParseInLocation(DateLayout, value, loc)
	}
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// FormatLocal formats t as a wall-clock timestamp with no offset marker.
func FormatLocal(t time.Time) string {
	return t.Format(LocalLayout)
}

// DeriveEndTime returns start plus DefaultDuration as a local timestamp.
// For an all-day date it returns the following date, since all-day ends
// are exclusive.
func DeriveEndTime(start string, loc *time.Location) (string, error) {
	t, err := ParseTime(start, loc)
	if err != nil {
		return "", err
	}
	if IsDate(start) {
		return t.AddDate(0, 0, 1).Format(DateLayout), nil
	}
	return FormatLocal(t.Add(DefaultDuration)), nil
}

// WithDefaultEnd fills EndTime from StartTime when only the start is set.
// An end of a different kind than the start (date vs. timestamp) is
// replaced as well, so a start moved onto a clock time does not keep an
// all-day end.
func (d EventDetails) WithDefaultEnd(loc *time.Location) (EventDetails, error) {
	if d.StartTime == "" {
		return d, nil
	}
	if d.EndTime != "" && IsDate(d.StartTime) == IsDate(d.EndTime) {
		return d, nil
	}
	end, err := DeriveEndTime(d.StartTime, loc)
	if err != nil {
		return d, err
	}
	d.EndTime = end
	return d, nil
}

// RecurrenceLines converts a rule into the Recurrence list Google expects.
func RecurrenceLines(rule string) []string {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil
	}
	if !strings.HasPrefix(strings.ToUpper(rule), "RRULE:") {
		rule = "RRULE:" + rule
	}
	return []string{rule}
}

// LoadLocation resolves a zone name, falling back to DefaultTimeZone when
// name is empty.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimeZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", name, err)
	}
	return loc, nil
}
