package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

// Health status constants for health check responses.
const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusFailing      = "failing"
)

// DefaultCheckTimeout bounds each readiness check.
const DefaultCheckTimeout = 2 * time.Second

// Check is a named readiness dependency, such as the session store.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// HealthChecker provides health check endpoints for Kubernetes probes.
type HealthChecker struct {
	// ready indicates whether the server is ready to receive traffic
	ready atomic.Bool
	// shuttingDown is set once graceful shutdown has begun
	shuttingDown atomic.Bool
	checks       []Check
	startTime    time.Time
}

// NewHealthChecker creates a new HealthChecker. The server starts ready.
func NewHealthChecker(checks ...Check) *HealthChecker {
	h := &HealthChecker{
		checks:    checks,
		startTime: time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// MarkShuttingDown makes readiness fail so load balancers drain the pod.
func (h *HealthChecker) MarkShuttingDown() {
	h.shuttingDown.Store(true)
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse provides comprehensive health information.
type DetailedHealthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime"`
	Checks map[string]string `json:"checks,omitempty"`
}

// evaluate runs every check and reports the overall status.
func (h *HealthChecker) evaluate(ctx context.Context) (string, map[string]string) {
	checks := make(map[string]string, len(h.checks)+2)
	status := healthStatusOK

	if h.ready.Load() {
		checks["ready"] = healthStatusOK
	} else {
		checks["ready"] = healthStatusNotReady
		status = healthStatusNotReady
	}

	if h.shuttingDown.Load() {
		checks["shutdown"] = healthStatusShuttingDown
		status = healthStatusShuttingDown
	} else {
		checks["shutdown"] = healthStatusOK
	}

	for _, c := range h.checks {
		cctx, cancel := context.WithTimeout(ctx, DefaultCheckTimeout)
		err := c.Fn(cctx)
		cancel()
		if err != nil {
			checks[c.Name] = healthStatusFailing
			if status == healthStatusOK {
				status = healthStatusNotReady
			}
			continue
		}
		checks[c.Name] = healthStatusOK
	}
	return status, checks
}

// LivenessHandler returns an HTTP handler for the /healthz endpoint.
// Liveness only reports that the process is serving requests.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler returns an HTTP handler for the /readyz endpoint.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, checks := h.evaluate(r.Context())
		code := http.StatusOK
		if status != healthStatusOK {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, HealthResponse{Status: status, Checks: checks})
	})
}

// DetailedHealthHandler returns an HTTP handler for the /healthz/detailed
// endpoint, which adds uptime to the readiness report.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, checks := h.evaluate(r.Context())
		code := http.StatusOK
		if status != healthStatusOK {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, DetailedHealthResponse{
			Status: status,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
			Checks: checks,
		})
	})
}

// CheckNames lists the configured readiness checks.
func (h *HealthChecker) CheckNames() []string {
	names := make([]string, 0, len(h.checks))
	for _, c := range h.checks {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// RegisterHealthEndpoints registers health check endpoints on r.
func (h *HealthChecker) RegisterHealthEndpoints(r chi.Router) {
	r.Method(http.MethodGet, "/healthz", h.LivenessHandler())
	r.Method(http.MethodGet, "/readyz", h.ReadinessHandler())
	r.Method(http.MethodGet, "/healthz/detailed", h.DetailedHealthHandler())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
