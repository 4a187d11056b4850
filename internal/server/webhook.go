package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/teemow/agendabot/internal/logging"
)

// maxWebhookBody bounds the form Twilio posts.
const maxWebhookBody = 64 << 10

func (s *Server) handleWhatsApp(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	if err := r.ParseForm(); err != nil {
		s.logger.WarnContext(r.Context(), "malformed webhook request", logging.Err(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	if v := s.cfg.SignatureValidator; v != nil {
		signedURL := strings.TrimSuffix(s.cfg.PublicURL, "/") + r.URL.RequestURI()
		if !v.ValidateRequest(signedURL, r) {
			s.logger.WarnContext(r.Context(), "rejected webhook with invalid signature",
				"remote_addr", r.RemoteAddr)
			http.Error(w, "invalid signature", http.StatusForbidden)
			return
		}
	}

	from := r.PostForm.Get("From")
	body := r.PostForm.Get("Body")
	if from == "" {
		s.logger.WarnContext(r.Context(), "webhook without sender ignored")
		w.WriteHeader(http.StatusOK)
		return
	}

	// The reply goes out over WhatsApp, so the turn finishes even if Twilio
	// stops waiting for the HTTP response.
	s.deps.Turns.HandleMessage(context.WithoutCancel(r.Context()), from, body)
	w.WriteHeader(http.StatusOK)
}
