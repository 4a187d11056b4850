package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/agendabot/internal/logging"
)

// TurnRecord captures what happened during one conversation turn.
//
// From holds the raw sender identity, which is personal data. LogAttrs
// only ever emits its hash.
type TurnRecord struct {
	TurnID  string
	From    string
	Intent  string
	Outcome string
	EventID string

	StartTime time.Time
	Duration  time.Duration
	Error     string

	TraceID string
	SpanID  string
}

// NewTurnRecord starts timing a turn.
func NewTurnRecord(turnID, from string) *TurnRecord {
	return &TurnRecord{
		TurnID:    turnID,
		From:      from,
		StartTime: time.Now(),
	}
}

// WithSpanContext copies the trace and span ids from the current span.
func (tr *TurnRecord) WithSpanContext(ctx context.Context) *TurnRecord {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		tr.TraceID = span.SpanContext().TraceID().String()
		tr.SpanID = span.SpanContext().SpanID().String()
	}
	return tr
}

// Complete stamps the outcome and duration of the turn.
func (tr *TurnRecord) Complete(intent, outcome string, err error) *TurnRecord {
	tr.Duration = time.Since(tr.StartTime)
	tr.Intent = intent
	tr.Outcome = outcome
	if err != nil {
		tr.Error = err.Error()
	}
	return tr
}

// Succeeded reports whether the turn ended in the success outcome.
func (tr *TurnRecord) Succeeded() bool {
	return tr.Outcome == StatusSuccess
}

// LogAttrs returns slog attributes with the sender hashed.
func (tr *TurnRecord) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String(logging.KeyTurnID, tr.TurnID),
		slog.String(logging.KeyUserHash, logging.AnonymizeUser(tr.From)),
		slog.String(logging.KeyIntent, tr.Intent),
		slog.String("outcome", tr.Outcome),
		slog.Duration(logging.KeyDuration, tr.Duration),
	}
	return tr.appendOptional(attrs)
}

// LogAuditAttrs is LogAttrs with the raw sender identity added.
func (tr *TurnRecord) LogAuditAttrs() []slog.Attr {
	return append(tr.LogAttrs(), slog.String("from", tr.From))
}

func (tr *TurnRecord) appendOptional(attrs []slog.Attr) []slog.Attr {
	if tr.EventID != "" {
		attrs = append(attrs, slog.String(logging.KeyEventID, tr.EventID))
	}
	if tr.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", tr.TraceID))
	}
	if tr.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", tr.SpanID))
	}
	if tr.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, tr.Error))
	}
	return attrs
}

// TurnAuditor writes one structured log line per completed turn.
// A nil *TurnAuditor discards records.
type TurnAuditor struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewTurnAuditor creates a TurnAuditor writing to logger.
func NewTurnAuditor(logger *slog.Logger, config TurnAuditConfig) *TurnAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TurnAuditor{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// Log writes the record at info level for successful turns and warn otherwise.
func (ta *TurnAuditor) Log(ctx context.Context, tr *TurnRecord) {
	if ta == nil || !ta.enabled || tr == nil {
		return
	}

	var attrs []slog.Attr
	if ta.includePII {
		attrs = tr.LogAuditAttrs()
	} else {
		attrs = tr.LogAttrs()
	}

	level := slog.LevelInfo
	if !tr.Succeeded() {
		level = slog.LevelWarn
	}
	ta.logger.LogAttrs(ctx, level, "turn_completed", attrs...)
}
