package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for agendabot.
const TracerName = "github.com/teemow/agendabot"

// Span names.
const (
	SpanTurn        = "assistant.turn"
	SpanLLMGenerate = "llm.generate"
)

// Span attribute keys.
const (
	// SpanAttrTurnID is the correlation id of a conversation turn.
	SpanAttrTurnID = "assistant.turn_id"

	// SpanAttrUser is the hashed sender identity.
	SpanAttrUser = "assistant.user_hash"

	// SpanAttrIntent is the resolved intent.
	SpanAttrIntent = "assistant.intent"

	// SpanAttrOutcome is the dispatcher outcome.
	SpanAttrOutcome = "assistant.outcome"

	// SpanAttrService is the Google service name attribute.
	SpanAttrService = "google.service"

	// SpanAttrOperation is the operation type attribute.
	SpanAttrOperation = "google.operation"

	// SpanAttrEventID is the calendar event identifier.
	SpanAttrEventID = "calendar.event_id"

	// SpanAttrModel is the language model name.
	SpanAttrModel = "llm.model"

	// SpanAttrMergePass marks the second resolver pass of an edit turn.
	SpanAttrMergePass = "llm.merge_pass"
)

// SpanAttributeBuilder helps construct span attributes with consistent naming.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewSpanAttributeBuilder creates a new SpanAttributeBuilder.
func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 8),
	}
}

// WithTurn adds the turn id and hashed user attributes. Empty values are skipped.
func (b *SpanAttributeBuilder) WithTurn(turnID, userHash string) *SpanAttributeBuilder {
	if turnID != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrTurnID, turnID))
	}
	if userHash != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrUser, userHash))
	}
	return b
}

// WithIntent adds the resolved intent attribute.
func (b *SpanAttributeBuilder) WithIntent(intent string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrIntent, intent))
	return b
}

// WithOutcome adds the dispatcher outcome attribute.
func (b *SpanAttributeBuilder) WithOutcome(outcome string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrOutcome, outcome))
	return b
}

// WithEventID adds the calendar event id attribute.
func (b *SpanAttributeBuilder) WithEventID(eventID string) *SpanAttributeBuilder {
	if eventID != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrEventID, eventID))
	}
	return b
}

// WithModel adds the language model attribute.
func (b *SpanAttributeBuilder) WithModel(model string) *SpanAttributeBuilder {
	if model != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrModel, model))
	}
	return b
}

// Build returns the constructed attributes.
func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartSpan starts a new span with the given name and attributes.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartTurnSpan starts the server span that covers one inbound message.
func StartTurnSpan(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, SpanTurn,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartGoogleAPISpan starts a span for Google API operations.
// The span is named google.<service>.<operation>.
func StartGoogleAPISpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+2)
	allAttrs = append(allAttrs,
		attribute.String(SpanAttrService, service),
		attribute.String(SpanAttrOperation, operation),
	)
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "google."+service+"."+operation,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartLLMSpan starts a client span around one language model call.
func StartLLMSpan(ctx context.Context, model string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	if model != "" {
		allAttrs = append(allAttrs, attribute.String(SpanAttrModel, model))
	}
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, SpanLLMGenerate,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddSpanEvent adds an event to the span with optional attributes.
func AddSpanEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the current span in context.
// Returns empty string if no valid span is present.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}
