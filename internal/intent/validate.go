package intent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/teemow/agendabot/internal/calendar"
)

// SchemaError reports a model answer that does not match the expected shape.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid model output: %s", e.Reason)
	}
	return fmt.Sprintf("invalid model output: %s: %s", e.Field, e.Reason)
}

var (
	openingFence = regexp.MustCompile("(?i)^```(?:json)?")
	closingFence = regexp.MustCompile("```$")
)

// stripFences removes a markdown code fence the model sometimes wraps its
// answer in. Backticks inside the answer are left alone.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = openingFence.ReplaceAllString(s, "")
	s = closingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Parse validates a raw model answer and converts it into a Result.
// Timestamps are interpreted in loc.
func Parse(raw string, loc *time.Location) (Result, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return Result{}, &SchemaError{Reason: "empty response"}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return Result{}, &SchemaError{Reason: "not a JSON object: " + err.Error()}
	}

	rawIntent, ok := envelope["intent"]
	if !ok {
		return Result{}, &SchemaError{Field: "intent", Reason: "missing"}
	}
	var name string
	if err := json.Unmarshal(rawIntent, &name); err != nil {
		return Result{}, &SchemaError{Field: "intent", Reason: "not a string"}
	}
	in := Intent(strings.ToLower(strings.TrimSpace(name)))
	if !in.Valid() {
		return Result{}, &SchemaError{Field: "intent", Reason: fmt.Sprintf("unknown intent %q", name)}
	}

	rawDetails, ok := envelope["details"]
	if !ok {
		return Result{}, &SchemaError{Field: "details", Reason: "missing"}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rawDetails, &fields); err != nil {
		return Result{}, &SchemaError{Field: "details", Reason: "not an object"}
	}
	// delete and other carry no payload, so null details are accepted there.
	if fields == nil && in != IntentDelete && in != IntentOther {
		return Result{}, &SchemaError{Field: "details", Reason: "not an object"}
	}

	switch in {
	case IntentCreate, IntentEdit:
		details, err := parseEventDetails(fields, loc)
		if err != nil {
			return Result{}, err
		}
		if in == IntentCreate {
			return result(&Create{Details: details}), nil
		}
		return result(&Edit{Details: details}), nil
	case IntentQuery:
		window, err := parseWindow(fields, loc)
		if err != nil {
			return Result{}, err
		}
		return result(&Query{Window: window}), nil
	case IntentDelete:
		return result(&Delete{}), nil
	case IntentOther:
		return result(&Other{}), nil
	default:
		return result(&Failed{Err: fmt.Errorf("model reported an error intent")}), nil
	}
}

func parseEventDetails(fields map[string]json.RawMessage, loc *time.Location) (calendar.EventDetails, error) {
	var d calendar.EventDetails
	targets := []struct {
		name string
		dst  *string
	}{
		{"title", &d.Title},
		{"startTime", &d.StartTime},
		{"endTime", &d.EndTime},
		{"location", &d.Location},
		{"description", &d.Description},
		{"recurrenceRule", &d.RecurrenceRule},
	}
	for _, t := range targets {
		v, err := optionalString(fields, t.name)
		if err != nil {
			return d, err
		}
		*t.dst = v
	}

	for _, ts := range []struct {
		name  string
		value string
	}{{"startTime", d.StartTime}, {"endTime", d.EndTime}} {
		if ts.value == "" {
			continue
		}
		if _, err := calendar.ParseTime(ts.value, loc); err != nil {
			return d, &SchemaError{Field: ts.name, Reason: err.Error()}
		}
	}

	if d.RecurrenceRule != "" {
		if err := validateRecurrence(d.RecurrenceRule); err != nil {
			return d, &SchemaError{Field: "recurrenceRule", Reason: err.Error()}
		}
	}
	return d, nil
}

func parseWindow(fields map[string]json.RawMessage, loc *time.Location) (calendar.QueryWindow, error) {
	var w calendar.QueryWindow
	for _, f := range []struct {
		name string
		dst  *string
	}{{"timeMin", &w.TimeMin}, {"timeMax", &w.TimeMax}} {
		v, err := optionalString(fields, f.name)
		if err != nil {
			return w, err
		}
		if v != "" {
			if _, err := calendar.ParseTime(v, loc); err != nil {
				return w, &SchemaError{Field: f.name, Reason: err.Error()}
			}
		}
		*f.dst = v
	}
	return w, nil
}

// optionalString reads a string field. Absent and null fields yield "".
func optionalString(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &SchemaError{Field: name, Reason: "not a string"}
	}
	return strings.TrimSpace(s), nil
}

func validateRecurrence(rule string) error {
	rule = strings.TrimSpace(rule)
	if len(rule) >= len("RRULE:") && strings.EqualFold(rule[:len("RRULE:")], "RRULE:") {
		rule = rule[len("RRULE:"):]
	}
	_, err := rrule.StrToRRule(rule)
	return err
}
