package intent

import (
	"time"

	"github.com/teemow/agendabot/internal/calendar"
)

// Intent is the classified purpose of a message.
type Intent string

const (
	IntentCreate Intent = "create"
	IntentEdit   Intent = "edit"
	IntentDelete Intent = "delete"
	IntentQuery  Intent = "query"
	IntentOther  Intent = "other"
	IntentError  Intent = "error"
)

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentCreate, IntentEdit, IntentDelete, IntentQuery, IntentOther, IntentError:
		return true
	}
	return false
}

func (i Intent) String() string {
	return string(i)
}

// Action is the resolved payload. It is one of *Create, *Edit, *Delete,
// *Query, *Other or *Failed.
type Action interface {
	Intent() Intent
	action()
}

// Create asks for a new event.
type Create struct {
	Details calendar.EventDetails
}

// Edit asks to change the last created event. On the second resolver pass
// Details is the complete updated event.
type Edit struct {
	Details calendar.EventDetails
}

// Delete asks to cancel the last created event.
type Delete struct{}

// Query asks which events fall inside Window.
type Query struct {
	Window calendar.QueryWindow
}

// Other is a message the assistant cannot act on.
type Other struct{}

// Failed means no usable classification was obtained.
type Failed struct {
	Err error
}

func (*Create) Intent() Intent { return IntentCreate }
func (*Edit) Intent() Intent   { return IntentEdit }
func (*Delete) Intent() Intent { return IntentDelete }
func (*Query) Intent() Intent  { return IntentQuery }
func (*Other) Intent() Intent  { return IntentOther }
func (*Failed) Intent() Intent { return IntentError }

func (*Create) action() {}
func (*Edit) action()   {}
func (*Delete) action() {}
func (*Query) action()  {}
func (*Other) action()  {}
func (*Failed) action() {}

// Result is the outcome of one Resolve call.
type Result struct {
	Intent Intent
	Action Action
}

func result(a Action) Result {
	return Result{Intent: a.Intent(), Action: a}
}

// Details returns the event details carried by Create or Edit results.
func (r Result) Details() calendar.EventDetails {
	switch a := r.Action.(type) {
	case *Create:
		return a.Details
	case *Edit:
		return a.Details
	}
	return calendar.EventDetails{}
}

// Snapshot is the original event as shown to the model during a merge.
type Snapshot struct {
	Title       string `json:"title"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// MergeContext carries the event being edited into the second resolver pass.
// It lives for one turn only.
type MergeContext struct {
	Intent   Intent
	Original Snapshot
}

// NewMergeContext snapshots ev. Text fields are copied verbatim; times are
// RFC 3339 in the event's zone, or plain dates for all-day events.
func NewMergeContext(ev calendar.Event) *MergeContext {
	return &MergeContext{
		Intent: IntentEdit,
		Original: Snapshot{
			Title:       ev.Title,
			StartTime:   formatSnapshotTime(ev.Start, ev.AllDay),
			EndTime:     formatSnapshotTime(ev.End, ev.AllDay),
			Location:    ev.Location,
			Description: ev.Description,
		},
	}
}

func formatSnapshotTime(t time.Time, allDay bool) string {
	if t.IsZero() {
		return ""
	}
	if allDay {
		return t.Format(calendar.DateLayout)
	}
	return t.Format(time.RFC3339)
}
