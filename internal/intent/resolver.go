package intent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/agendabot/internal/calendar"
	"github.com/teemow/agendabot/internal/instrumentation"
	"github.com/teemow/agendabot/internal/logging"
)

// Model generates a completion for a prompt.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f ModelFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Config configures a Resolver.
type Config struct {
	// Location is the civil zone used for the reference time and for
	// interpreting timestamps. Defaults to calendar.DefaultTimeZone.
	Location *time.Location

	// ValidationRetries is how many extra attempts are made when the model
	// answers with output that fails schema validation. Transport errors
	// are never retried.
	ValidationRetries int

	// ModelName is recorded on spans.
	ModelName string

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger

	// Now returns the reference time. Defaults to time.Now.
	Now func() time.Time
}

// Resolver turns free text into a Result.
type Resolver struct {
	model   Model
	loc     *time.Location
	retries int
	name    string
	metrics *instrumentation.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewResolver creates a Resolver backed by model.
func NewResolver(model Model, cfg Config) (*Resolver, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	if cfg.ValidationRetries < 0 {
		return nil, fmt.Errorf("validation retries must be non-negative, got %d", cfg.ValidationRetries)
	}
	loc := cfg.Location
	if loc == nil {
		var err error
		if loc, err = calendar.LoadLocation(""); err != nil {
			return nil, err
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Resolver{
		model:   model,
		loc:     loc,
		retries: cfg.ValidationRetries,
		name:    cfg.ModelName,
		metrics: cfg.Metrics,
		logger:  logging.WithService(logger, "intent"),
		now:     now,
	}, nil
}

// Location returns the zone the resolver interprets times in.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve classifies text. mc is nil on the first pass and carries the event
// under edit on the merge pass. Resolve never returns an error; every failure
// becomes a Failed action.
func (r *Resolver) Resolve(ctx context.Context, text string, mc *MergeContext) Result {
	prompt := BuildPrompt(r.now(), r.loc, text, mc)

	attempts := r.retries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		res, err := r.attempt(ctx, prompt, mc != nil)
		if err == nil {
			return res
		}
		lastErr = err

		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) {
			break
		}
		r.logger.WarnContext(ctx, "model output failed validation",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			logging.Err(err))
	}
	return result(&Failed{Err: lastErr})
}

func (r *Resolver) attempt(ctx context.Context, prompt string, mergePass bool) (Result, error) {
	ctx, span := instrumentation.StartLLMSpan(ctx, r.name,
		attribute.Bool(instrumentation.SpanAttrMergePass, mergePass))
	defer span.End()

	start := time.Now()
	raw, err := r.model.Generate(ctx, prompt)
	if err != nil {
		r.metrics.RecordLLMRequest(ctx, instrumentation.LLMResultError, time.Since(start))
		instrumentation.SetSpanError(span, err)
		r.logger.ErrorContext(ctx, "model request failed", logging.Err(err))
		return Result{}, fmt.Errorf("model request failed: %w", err)
	}

	res, err := Parse(raw, r.loc)
	if err != nil {
		r.metrics.RecordLLMRequest(ctx, instrumentation.LLMResultInvalid, time.Since(start))
		instrumentation.SetSpanError(span, err)
		return Result{}, err
	}

	r.metrics.RecordLLMRequest(ctx, instrumentation.LLMResultSuccess, time.Since(start))
	span.SetAttributes(attribute.String(instrumentation.SpanAttrIntent, res.Intent.String()))
	instrumentation.SetSpanSuccess(span)
	return res, nil
}
