package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/agendabot/internal/google"
	"github.com/teemow/agendabot/internal/instrumentation"
)

// DefaultListLimit caps the number of events returned by List.
const DefaultListLimit = 15

// Config configures a Client.
type Config struct {
	// CalendarID is the calendar events are written to (default: primary).
	CalendarID string

	// Location is the civil time zone for local timestamps.
	Location *time.Location

	// Metrics records google_api_operations_total. May be nil.
	Metrics *instrumentation.Metrics

	// Endpoint overrides the Calendar API base URL.
	Endpoint string
}

// Client is the calendar gateway. Every call takes the user's stored
// credential and builds an authenticated service for it.
type Client struct {
	tokens     google.TokenProvider
	calendarID string
	loc        *time.Location
	metrics    *instrumentation.Metrics
	endpoint   string
}

// NewClient creates a gateway that authenticates through tokens.
func NewClient(tokens google.TokenProvider, cfg Config) (*Client, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = "primary"
	}
	if cfg.Location == nil {
		loc, err := LoadLocation("")
		if err != nil {
			return nil, err
		}
		cfg.Location = loc
	}
	return &Client{
		tokens:     tokens,
		calendarID: cfg.CalendarID,
		loc:        cfg.Location,
		metrics:    cfg.Metrics,
		endpoint:   cfg.Endpoint,
	}, nil
}

// Location returns the civil time zone of the gateway.
func (c *Client) Location() *time.Location {
	return c.loc
}

func (c *Client) service(ctx context.Context, credential string) (*calendar.Service, error) {
	httpClient, err := c.tokens.HTTPClient(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth client: %w", err)
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return svc, nil
}

// do runs fn inside a google.calendar.<op> span, records the operation
// metric and wraps any failure in an APIError.
func (c *Client) do(ctx context.Context, credential, op, eventID string, fn func(ctx context.Context, svc *calendar.Service) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, op,
		instrumentation.NewSpanAttributeBuilder().WithEventID(eventID).Build()...)
	defer span.End()

	start := time.Now()
	err := func() error {
		svc, err := c.service(ctx, credential)
		if err != nil {
			return err
		}
		return fn(ctx, svc)
	}()

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, op, status, time.Since(start))

	if err != nil {
		return &APIError{Op: op, EventID: eventID, Err: err}
	}
	return nil
}

// Create inserts a new event. StartTime and EndTime are required.
func (c *Client) Create(ctx context.Context, credential string, details EventDetails) (*Event, error) {
	var created Event
	err := c.do(ctx, credential, "create", "", func(ctx context.Context, svc *calendar.Service) error {
		if details.StartTime == "" || details.EndTime == "" {
			return errors.New("start and end time are required")
		}

		event := &calendar.Event{
			Summary:     details.Title,
			Location:    details.Location,
			Description: details.Description,
			Recurrence:  RecurrenceLines(details.RecurrenceRule),
		}
		var err error
		if event.Start, err = c.eventDateTime(details.StartTime); err != nil {
			return fmt.Errorf("invalid start time: %w", err)
		}
		if event.End, err = c.eventDateTime(details.EndTime); err != nil {
			return fmt.Errorf("invalid end time: %w", err)
		}

		result, err := svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		created = toEvent(result, c.loc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Patch updates eventID with the non-empty fields of details. A start
// without an end moves the end to start plus DefaultDuration.
func (c *Client) Patch(ctx context.Context, credential, eventID string, details EventDetails) (*Event, error) {
	var patched Event
	err := c.do(ctx, credential, "patch", eventID, func(ctx context.Context, svc *calendar.Service) error {
		details, err := details.WithDefaultEnd(c.loc)
		if err != nil {
			return fmt.Errorf("invalid start time: %w", err)
		}

		event := &calendar.Event{
			Summary:     details.Title,
			Location:    details.Location,
			Description: details.Description,
			Recurrence:  RecurrenceLines(details.RecurrenceRule),
		}
		if details.StartTime != "" {
			if event.Start, err = c.eventDateTime(details.StartTime); err != nil {
				return fmt.Errorf("invalid start time: %w", err)
			}
		}
		if details.EndTime != "" {
			if event.End, err = c.eventDateTime(details.EndTime); err != nil {
				return fmt.Errorf("invalid end time: %w", err)
			}
		}

		result, err := svc.Events.Patch(c.calendarID, eventID, event).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to patch event: %w", err)
		}
		patched = toEvent(result, c.loc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &patched, nil
}

// Delete removes eventID.
func (c *Client) Delete(ctx context.Context, credential, eventID string) error {
	return c.do(ctx, credential, "delete", eventID, func(ctx context.Context, svc *calendar.Service) error {
		if err := svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		return nil
	})
}

// List returns up to limit single-instance events inside window, ordered by
// start time. An empty window result is an empty, non-nil slice.
func (c *Client) List(ctx context.Context, credential string, window QueryWindow, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var events []Event
	err := c.do(ctx, credential, "list", "", func(ctx context.Context, svc *calendar.Service) error {
		timeMin, err := ParseTime(window.TimeMin, c.loc)
		if err != nil {
			return fmt.Errorf("invalid timeMin: %w", err)
		}
		timeMax, err := ParseTime(window.TimeMax, c.loc)
		if err != nil {
			return fmt.Errorf("invalid timeMax: %w", err)
		}

		result, err := svc.Events.List(c.calendarID).
			TimeMin(timeMin.Format(time.RFC3339)).
			TimeMax(timeMax.Format(time.RFC3339)).
			MaxResults(int64(limit)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}

		events = make([]Event, 0, len(result.Items))
		for _, item := range result.Items {
			events = append(events, toEvent(item, c.loc))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Get retrieves eventID.
func (c *Client) Get(ctx context.Context, credential, eventID string) (*Event, error) {
	var found Event
	err := c.do(ctx, credential, "get", eventID, func(ctx context.Context, svc *calendar.Service) error {
		result, err := svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		found = toEvent(result, c.loc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// eventDateTime converts a timestamp into an EventDateTime. Plain dates
// become all-day values.
func (c *Client) eventDateTime(value string) (*calendar.EventDateTime, error) {
	t, err := ParseTime(value, c.loc)
	if err != nil {
		return nil, err
	}
	if IsDate(value) {
		return &calendar.EventDateTime{Date: t.Format(DateLayout)}, nil
	}
	return &calendar.EventDateTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: c.loc.String(),
	}, nil
}
