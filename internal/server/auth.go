package server

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/teemow/agendabot/internal/assistant"
	"github.com/teemow/agendabot/internal/google"
	"github.com/teemow/agendabot/internal/instrumentation"
	"github.com/teemow/agendabot/internal/logging"
)

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body><h1>{{.Title}}</h1><p>{{.Message}}</p></body></html>
`))

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Error</title></head>
<body><h1>Error</h1><p><strong>Type:</strong> {{.Code}}</p><p><strong>Description:</strong> {{.Description}}</p></body></html>
`))

type pageData struct {
	Title   string
	Message string
}

type errorData struct {
	Code        string
	Description string
}

func renderSuccess(w http.ResponseWriter, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = successPage.Execute(w, pageData{Title: title, Message: message})
}

func renderError(w http.ResponseWriter, status int, code, description string) {
	if code == "" {
		code = "Error"
	}
	if description == "" {
		description = "No description."
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = errorPage.Execute(w, errorData{Code: code, Description: description})
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("whatsappNumber")
	if number == "" {
		http.Error(w, "missing whatsappNumber", http.StatusBadRequest)
		return
	}
	s.logger.InfoContext(r.Context(), "starting authorization", logging.UserHash(number))
	http.Redirect(w, r, s.deps.Auth.AuthURL(number), http.StatusFound)
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	from := q.Get("state")
	logger := logging.WithOperation(s.logger, "oauth.callback").With(logging.UserHash(from))

	// Google redirects with ?error=... when the user declines consent.
	if code := q.Get("error"); code != "" {
		s.cfg.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		logger.WarnContext(ctx, "authorization declined", slog.String("oauth_error", code))
		renderError(w, http.StatusBadRequest, code, q.Get("error_description"))
		return
	}

	code := q.Get("code")
	if code == "" || from == "" {
		http.Error(w, "missing code or state", http.StatusBadRequest)
		return
	}

	tok, err := s.deps.Auth.Exchange(ctx, code)
	if err != nil {
		failure := google.DescribeExchangeError(err)
		s.cfg.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		logger.ErrorContext(ctx, "code exchange failed",
			slog.Int("upstream_status", failure.StatusCode),
			slog.String("oauth_error", failure.Code),
			logging.Err(err))
		renderError(w, failure.StatusCode, failure.Code, failure.Description)
		return
	}

	if tok.RefreshToken == "" {
		s.cfg.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultReauth)
		logger.InfoContext(ctx, "consent completed without a new refresh token")
		s.notify(r, from, assistant.MsgAlreadyAuthenticated)
		renderSuccess(w, "Re-authentication successful", "You can close this window now.")
		return
	}

	if err := s.deps.Credentials.SaveCredential(ctx, from, tok.RefreshToken); err != nil {
		s.cfg.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		logger.ErrorContext(ctx, "failed to store credential", logging.Err(err))
		renderError(w, http.StatusInternalServerError, "storage_error", "The credential could not be saved. Please try again.")
		return
	}

	s.cfg.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	logger.InfoContext(ctx, "credential stored", slog.String("refresh_token", logging.SanitizeToken(tok.RefreshToken)))
	s.notify(r, from, assistant.MsgAuthenticated)
	renderSuccess(w, "Authentication successful", "You can close this window now.")
}

// notify sends a best-effort WhatsApp message.
func (s *Server) notify(r *http.Request, to, text string) {
	if err := s.deps.Notifier.Send(r.Context(), to, text); err != nil {
		s.logger.WarnContext(r.Context(), "notification not delivered", logging.UserHash(to), logging.Err(err))
	}
}
