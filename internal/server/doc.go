// Package server exposes the assistant over HTTP.
//
// # Routes
//
//   - POST /whatsapp receives Twilio WhatsApp webhooks and runs one turn per
//     message. It always answers 200 unless signature validation is enabled
//     and the request is not signed by Twilio.
//   - GET /auth redirects a sender to the Google consent screen.
//   - GET /oauth2callback completes the consent, stores the credential and
//     tells the sender over WhatsApp.
//   - GET / answers with a short status line.
//   - GET /healthz, /readyz and /healthz/detailed serve Kubernetes probes.
//
// Prometheus metrics are served by MetricsServer on a separate port so that
// they are never exposed on the public listener.
package server
