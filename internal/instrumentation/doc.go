// Package instrumentation provides OpenTelemetry metrics and tracing for agendabot.
//
// # Metrics
//
// HTTP:
//   - http_requests_total: HTTP requests by method, route, and status
//   - http_request_duration_seconds: HTTP request durations
//
// Conversation turns:
//   - assistant_turns_total: completed turns by resolved intent and outcome
//   - assistant_turn_duration_seconds: end-to-end turn durations by intent
//
// Google API:
//   - google_api_operations_total: calendar operations by service, operation, status
//   - google_api_operation_duration_seconds: calendar operation durations
//
// Language model:
//   - llm_requests_total: model calls by result (success, error, invalid)
//   - llm_request_duration_seconds: model call durations
//
// Delivery and authorization:
//   - notifications_total: outbound WhatsApp messages by status
//   - oauth_auth_total: OAuth callbacks by result
//
// Label values for intent, outcome and route are bounded; see BoundedLabel
// and RoutePath.
//
// # Tracing
//
// Spans are created for:
//   - each conversation turn (assistant.turn)
//   - Google Calendar calls (google.calendar.<operation>)
//   - language model calls (llm.generate)
//
// # Configuration
//
//   - METRICS_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_EXPORTER_OTLP_INSECURE: use plain HTTP for OTLP
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: agendabot)
//   - TURN_AUDIT_ENABLED, TURN_AUDIT_INCLUDE_PII: per-turn audit log
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordTurn(ctx, "create", "success", time.Since(start))
package instrumentation
