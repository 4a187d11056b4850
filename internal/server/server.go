package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/oauth2"

	"github.com/teemow/agendabot/internal/assistant"
	"github.com/teemow/agendabot/internal/instrumentation"
	"github.com/teemow/agendabot/internal/whatsapp"
)

const (
	// DefaultAddr is the listen address when none is configured.
	DefaultAddr = ":3000"

	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
)

// TurnHandler runs one assistant turn.
type TurnHandler interface {
	HandleMessage(ctx context.Context, from, body string) assistant.Outcome
}

// Authenticator drives the Google consent flow.
type Authenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// CredentialStore persists credentials obtained through the consent flow.
type CredentialStore interface {
	SaveCredential(ctx context.Context, userID, credential string) error
}

// Config configures the HTTP server.
type Config struct {
	Addr string

	// PublicURL is the externally visible base URL. Twilio signs webhook
	// requests against it.
	PublicURL string

	// SignatureValidator rejects unsigned webhook requests. Nil disables
	// validation.
	SignatureValidator *whatsapp.SignatureValidator

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Deps are the collaborators behind the routes.
type Deps struct {
	Turns       TurnHandler
	Auth        Authenticator
	Credentials CredentialStore
	Notifier    assistant.Notifier
	Health      *HealthChecker
}

// Server is the public HTTP listener.
type Server struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// New creates a Server.
func New(cfg Config, deps Deps) (*Server, error) {
	switch {
	case deps.Turns == nil:
		return nil, errors.New("turn handler is required")
	case deps.Auth == nil:
		return nil, errors.New("authenticator is required")
	case deps.Credentials == nil:
		return nil, errors.New("credential store is required")
	case deps.Notifier == nil:
		return nil, errors.New("notifier is required")
	}
	if cfg.SignatureValidator != nil && cfg.PublicURL == "" {
		return nil, errors.New("public URL is required for webhook signature validation")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if deps.Health == nil {
		deps.Health = NewHealthChecker()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, deps: deps, logger: logger}, nil
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(requestMetrics(s.cfg.Metrics))
	r.Use(chiMiddleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Post("/whatsapp", s.handleWhatsApp)
	r.Get("/auth", s.handleAuth)
	r.Get("/oauth2callback", s.handleOAuthCallback)
	s.deps.Health.RegisterHealthEndpoints(r)

	return r
}

// Start listens and serves until Shutdown. It blocks.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("starting http server", "addr", ln.Addr().String())
	return srv.Serve(ln)
}

// Shutdown marks the server as draining and waits for in-flight turns.
func (s *Server) Shutdown(ctx context.Context) error {
	s.deps.Health.MarkShuttingDown()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Info("shutting down http server")
	return srv.Shutdown(ctx)
}

// Addr returns the bound address once started, or the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("agendabot is running\n"))
}
