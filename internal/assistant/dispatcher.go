package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/agendabot/internal/calendar"
	"github.com/teemow/agendabot/internal/instrumentation"
	"github.com/teemow/agendabot/internal/intent"
	"github.com/teemow/agendabot/internal/logging"
	"github.com/teemow/agendabot/internal/session"
)

// Gateway is the calendar the dispatcher acts on. A returned error means
// the call could not complete. List returns a non-nil slice on success.
type Gateway interface {
	Create(ctx context.Context, credential string, details calendar.EventDetails) (*calendar.Event, error)
	Patch(ctx context.Context, credential, eventID string, details calendar.EventDetails) (*calendar.Event, error)
	Delete(ctx context.Context, credential, eventID string) error
	List(ctx context.Context, credential string, window calendar.QueryWindow, limit int) ([]calendar.Event, error)
	Get(ctx context.Context, credential, eventID string) (*calendar.Event, error)
}

// Store is the part of the session store a turn needs.
type Store interface {
	GetSession(ctx context.Context, userID string) (*session.Session, error)
	SaveLastEventID(ctx context.Context, userID, eventID string) error
}

// Resolver classifies message text.
type Resolver interface {
	Resolve(ctx context.Context, text string, mc *intent.MergeContext) intent.Result
}

// Notifier delivers replies. Delivery is best effort.
type Notifier interface {
	Send(ctx context.Context, to, text string) error
}

// Config configures a Dispatcher.
type Config struct {
	// BaseURL is the public URL of the server, used in authorization links.
	BaseURL string

	// Location renders event times in replies.
	Location *time.Location

	// ListLimit caps query results. Defaults to calendar.DefaultListLimit.
	ListLimit int

	// SerializeTurns runs at most one turn per sender at a time.
	SerializeTurns bool

	Metrics *instrumentation.Metrics
	Auditor *instrumentation.TurnAuditor
	Logger  *slog.Logger
}

// Dispatcher runs turns.
type Dispatcher struct {
	store    Store
	resolver Resolver
	gateway  Gateway
	notifier Notifier

	baseURL   string
	loc       *time.Location
	listLimit int
	locks     *turnLocks

	metrics *instrumentation.Metrics
	auditor *instrumentation.TurnAuditor
	logger  *slog.Logger
}

// NewDispatcher wires a Dispatcher from its collaborators.
func NewDispatcher(store Store, resolver Resolver, gateway Gateway, notifier Notifier, cfg Config) (*Dispatcher, error) {
	switch {
	case store == nil:
		return nil, errors.New("session store is required")
	case resolver == nil:
		return nil, errors.New("resolver is required")
	case gateway == nil:
		return nil, errors.New("calendar gateway is required")
	case notifier == nil:
		return nil, errors.New("notifier is required")
	case cfg.BaseURL == "":
		return nil, errors.New("base URL is required")
	}

	loc := cfg.Location
	if loc == nil {
		var err error
		if loc, err = calendar.LoadLocation(""); err != nil {
			return nil, err
		}
	}
	limit := cfg.ListLimit
	if limit <= 0 {
		limit = calendar.DefaultListLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		store:     store,
		resolver:  resolver,
		gateway:   gateway,
		notifier:  notifier,
		baseURL:   cfg.BaseURL,
		loc:       loc,
		listLimit: limit,
		metrics:   cfg.Metrics,
		auditor:   cfg.Auditor,
		logger:    logging.WithService(logger, "assistant"),
	}
	if cfg.SerializeTurns {
		d.locks = newTurnLocks()
	}
	return d, nil
}

// turn is the state of one HandleMessage call.
type turn struct {
	from   string
	body   string
	logger *slog.Logger

	intent  string
	outcome Outcome
	eventID string
	err     error
}

func (t *turn) fail(outcome Outcome, err error) {
	t.outcome = outcome
	t.err = err
}

// HandleMessage runs one turn for a message from sender from and returns
// how it ended. It always sends exactly one reply and never panics.
func (d *Dispatcher) HandleMessage(ctx context.Context, from, body string) Outcome {
	if d.locks != nil {
		unlock := d.locks.Lock(from)
		defer unlock()
	}

	turnID := uuid.NewString()
	ctx, span := instrumentation.StartTurnSpan(ctx,
		instrumentation.NewSpanAttributeBuilder().WithTurn(turnID, logging.AnonymizeUser(from)).Build()...)
	defer span.End()

	record := instrumentation.NewTurnRecord(turnID, from).WithSpanContext(ctx)
	t := &turn{
		from:    from,
		body:    body,
		logger:  logging.WithTurn(d.logger, turnID, from),
		intent:  intentNone,
		outcome: OutcomeSuccess,
	}
	t.logger.InfoContext(ctx, "turn started", logging.Channel(from))

	reply := d.run(ctx, t)

	if err := d.send(ctx, t, reply); err != nil {
		t.logger.WarnContext(ctx, "reply not delivered",
			slog.String("branch_outcome", t.outcome.String()),
			logging.Err(err))
		t.outcome = OutcomeTransportFailure
		if t.err == nil {
			t.err = err
		}
	}

	record.EventID = t.eventID
	record.Complete(t.intent, t.outcome.String(), t.err)
	d.auditor.Log(ctx, record)
	d.metrics.RecordTurn(ctx, t.intent, t.outcome.String(), record.Duration)

	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().
		WithIntent(t.intent).
		WithOutcome(t.outcome.String()).
		WithEventID(t.eventID).
		Build()...)
	if t.err != nil {
		instrumentation.SetSpanError(span, t.err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	return t.outcome
}

// send delivers the reply. A panic in the notifier is reported as a
// delivery error.
func (d *Dispatcher) send(ctx context.Context, t *turn, reply string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.ErrorContext(ctx, "notifier panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return d.notifier.Send(ctx, t.from, reply)
}

// run executes the branch for the turn and returns the reply text. A panic
// becomes the generic failure reply.
func (d *Dispatcher) run(ctx context.Context, t *turn) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			t.fail(OutcomeInternalFailure, fmt.Errorf("panic: %v", r))
			t.logger.ErrorContext(ctx, "turn panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			reply = MsgGenericFailure
		}
	}()

	sess, err := d.store.GetSession(ctx, t.from)
	switch {
	case errors.Is(err, session.ErrNotFound):
		sess = nil
	case err != nil:
		t.fail(OutcomeInternalFailure, fmt.Errorf("failed to load session: %w", err))
		t.logger.ErrorContext(ctx, "session lookup failed", logging.Err(err))
		return MsgGenericFailure
	}

	if !sess.Authorized() {
		t.outcome = OutcomeUnauthorized
		t.logger.InfoContext(ctx, "sender has no credential, sending authorization link")
		return AuthPrompt(AuthURL(d.baseURL, t.from))
	}

	res := d.resolver.Resolve(ctx, t.body, nil)
	t.intent = res.Intent.String()
	t.logger = t.logger.With(logging.Intent(t.intent))
	t.logger.InfoContext(ctx, "intent resolved")

	switch a := res.Action.(type) {
	case *intent.Create:
		return d.create(ctx, t, sess, a.Details)
	case *intent.Edit:
		return d.edit(ctx, t, sess)
	case *intent.Delete:
		return d.delete(ctx, t, sess)
	case *intent.Query:
		return d.query(ctx, t, sess, a.Window)
	case *intent.Other:
		return MsgNotSure
	case *intent.Failed:
		t.fail(OutcomeResolutionFailure, a.Err)
		return MsgNotSure
	default:
		t.fail(OutcomeInternalFailure, fmt.Errorf("unhandled action %T", res.Action))
		return MsgNotSure
	}
}

func (d *Dispatcher) create(ctx context.Context, t *turn, sess *session.Session, details calendar.EventDetails) string {
	if details.StartTime == "" {
		t.outcome = OutcomeMissingDetails
		return MsgMissingStart
	}
	details, err := details.WithDefaultEnd(d.loc)
	if err != nil {
		t.fail(OutcomeMissingDetails, err)
		return MsgMissingStart
	}

	ev, err := d.gateway.Create(ctx, sess.Credential, details)
	if err != nil {
		t.fail(OutcomeGatewayFailure, err)
		t.logger.ErrorContext(ctx, "event creation failed", logging.Err(err))
		return MsgCreateFailed
	}
	if ev == nil || ev.ID == "" {
		t.fail(OutcomeGatewayFailure, errors.New("created event has no id"))
		return MsgCreateFailed
	}

	t.eventID = ev.ID
	if err := d.store.SaveLastEventID(ctx, t.from, ev.ID); err != nil {
		// The event exists; only the reference for a later edit is lost.
		t.err = fmt.Errorf("failed to save last event id: %w", err)
		t.logger.ErrorContext(ctx, "failed to save last event id", logging.EventID(ev.ID), logging.Err(err))
	}
	t.logger.InfoContext(ctx, "event created", logging.EventID(ev.ID))
	return Created(ev.Title)
}

func (d *Dispatcher) edit(ctx context.Context, t *turn, sess *session.Session) string {
	if sess.LastEventID == "" {
		t.outcome = OutcomeMissingReference
		return MsgNothingToEdit
	}
	t.eventID = sess.LastEventID

	original, err := d.gateway.Get(ctx, sess.Credential, sess.LastEventID)
	if err != nil || original == nil {
		if err == nil {
			err = errors.New("event not returned")
		}
		if calendar.IsNotFound(err) {
			return d.referenceGone(ctx, t, err)
		}
		t.fail(OutcomeGatewayFailure, err)
		t.logger.ErrorContext(ctx, "failed to read event for edit", logging.EventID(sess.LastEventID), logging.Err(err))
		return MsgEditLookupFailed
	}

	merged := d.resolver.Resolve(ctx, t.body, intent.NewMergeContext(*original))
	if failed, ok := merged.Action.(*intent.Failed); ok {
		t.fail(OutcomeResolutionFailure, failed.Err)
		t.logger.WarnContext(ctx, "merge pass did not produce details", logging.Err(failed.Err))
		return MsgEditFailed
	}
	details := merged.Details()
	if details.IsEmpty() {
		t.fail(OutcomeResolutionFailure, fmt.Errorf("merge pass returned %s without details", merged.Intent))
		return MsgEditFailed
	}

	updated, err := d.gateway.Patch(ctx, sess.Credential, sess.LastEventID, details)
	if err != nil || updated == nil {
		if err == nil {
			err = errors.New("event not returned")
		}
		t.fail(OutcomeGatewayFailure, err)
		t.logger.ErrorContext(ctx, "event update failed", logging.EventID(sess.LastEventID), logging.Err(err))
		return MsgEditFailed
	}
	t.logger.InfoContext(ctx, "event updated", logging.EventID(updated.ID))
	return Edited(updated.Title)
}

func (d *Dispatcher) delete(ctx context.Context, t *turn, sess *session.Session) string {
	if sess.LastEventID == "" {
		t.outcome = OutcomeMissingReference
		return MsgNothingToCancel
	}
	t.eventID = sess.LastEventID

	if err := d.gateway.Delete(ctx, sess.Credential, sess.LastEventID); err != nil {
		if calendar.IsNotFound(err) {
			return d.referenceGone(ctx, t, err)
		}
		t.fail(OutcomeGatewayFailure, err)
		t.logger.ErrorContext(ctx, "event deletion failed", logging.EventID(sess.LastEventID), logging.Err(err))
		return MsgDeleteFailed
	}
	t.logger.InfoContext(ctx, "event deleted", logging.EventID(sess.LastEventID))
	return MsgDeleted
}

// referenceGone answers a turn whose remembered event was deleted in the
// meantime. The reference is kept; the next create replaces it.
func (d *Dispatcher) referenceGone(ctx context.Context, t *turn, err error) string {
	t.fail(OutcomeMissingReference, err)
	t.logger.InfoContext(ctx, "last event no longer exists", logging.EventID(t.eventID))
	return MsgEventGone
}

func (d *Dispatcher) query(ctx context.Context, t *turn, sess *session.Session, window calendar.QueryWindow) string {
	if !window.Complete() {
		t.outcome = OutcomeMissingWindow
		return MsgMissingWindow
	}

	events, err := d.gateway.List(ctx, sess.Credential, window, d.listLimit)
	if err != nil || events == nil {
		if err == nil {
			err = errors.New("no result from calendar")
		}
		t.fail(OutcomeGatewayFailure, err)
		t.logger.ErrorContext(ctx, "event listing failed", logging.Err(err))
		return MsgQueryFailed
	}
	t.logger.InfoContext(ctx, "events listed", slog.Int("count", len(events)),
		slog.String("time_min", window.TimeMin), slog.String("time_max", window.TimeMax))

	if len(events) == 0 {
		return MsgNoEvents
	}
	return Agenda(events, d.loc)
}
