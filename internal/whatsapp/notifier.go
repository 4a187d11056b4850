package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/teemow/agendabot/internal/instrumentation"
	"github.com/teemow/agendabot/internal/logging"
)

// Config holds Twilio credentials and the sending number.
type Config struct {
	AccountSID string
	AuthToken  string
	From       string
}

// Validate checks that all settings are present.
func (c Config) Validate() error {
	var missing []string
	if c.AccountSID == "" {
		missing = append(missing, "account SID")
	}
	if c.AuthToken == "" {
		missing = append(missing, "auth token")
	}
	if c.From == "" {
		missing = append(missing, "sender number")
	}
	if len(missing) > 0 {
		return fmt.Errorf("twilio configuration incomplete: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioNotifier sends WhatsApp messages through Twilio.
type TwilioNotifier struct {
	api     messageCreator
	from    string
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// Option configures a TwilioNotifier.
type Option func(*TwilioNotifier)

// WithMetrics records delivery results.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(n *TwilioNotifier) { n.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *TwilioNotifier) { n.logger = l }
}

// NewTwilioNotifier creates a notifier backed by the Twilio REST API.
func NewTwilioNotifier(cfg Config, opts ...Option) (*TwilioNotifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &SendError{Op: "initialize", Err: err}
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioNotifier(client.Api, cfg.From, opts...), nil
}

func newTwilioNotifier(api messageCreator, from string, opts ...Option) *TwilioNotifier {
	n := &TwilioNotifier{
		api:    api,
		from:   Address(from),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = logging.WithService(n.logger, "whatsapp")
	return n
}

// Send delivers text to the recipient. The caller decides whether a
// delivery failure matters.
func (n *TwilioNotifier) Send(ctx context.Context, to, text string) error {
	err := n.send(ctx, to, text)
	if err != nil {
		n.metrics.RecordNotification(ctx, instrumentation.StatusError)
		n.logger.WarnContext(ctx, "message delivery failed",
			logging.UserHash(to),
			logging.Err(err))
		return err
	}
	n.metrics.RecordNotification(ctx, instrumentation.StatusSuccess)
	n.logger.DebugContext(ctx, "message delivered", logging.UserHash(to))
	return nil
}

func (n *TwilioNotifier) send(ctx context.Context, to, text string) error {
	to = Address(to)
	if to == "" {
		return &SendError{Op: "send", Err: errors.New("recipient cannot be empty")}
	}
	if text == "" {
		return &SendError{Op: "send", To: to, Err: errors.New("message cannot be empty")}
	}
	if err := ctx.Err(); err != nil {
		return &SendError{Op: "send", To: to, Err: err}
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(n.from)
	params.SetBody(text)

	if _, err := n.api.CreateMessage(params); err != nil {
		return &SendError{Op: "send", To: to, Err: err}
	}
	return nil
}

// ConsoleNotifier writes messages to an io.Writer. It is safe for
// concurrent use.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleNotifier creates a ConsoleNotifier writing to w.
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

// Send prints the message.
func (c *ConsoleNotifier) Send(_ context.Context, to, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.w, "→ %s\n%s\n\n", to, text); err != nil {
		return &SendError{Op: "send", To: to, Err: err}
	}
	return nil
}
