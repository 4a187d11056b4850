package instrumentation

import (
	"context"
	"testing"
	"time"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil even when disabled")
	}
	if provider.TurnAuditor() == nil {
		t.Error("expected turn auditor to be non-nil even when disabled")
	}
	if provider.ServesPrometheus() {
		t.Error("disabled provider should not serve prometheus")
	}

	// No-op recorders must not panic.
	provider.Metrics().RecordTurn(context.Background(), "create", "success", time.Second)

	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}

func TestNewProvider_PrometheusExporter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if !provider.Enabled() {
		t.Error("expected provider to be enabled")
	}
	if !provider.ServesPrometheus() {
		t.Error("expected prometheus exporter to be active")
	}
	if provider.Tracer("test") == nil {
		t.Error("expected tracer to be non-nil")
	}
}

func TestNewProvider_StdoutExporter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:       "test-service",
		ServiceVersion:    "1.0.0",
		Enabled:           true,
		MetricsExporter:   ExporterStdout,
		TracingExporter:   ExporterStdout,
		TraceSamplingRate: 1,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if provider.ServesPrometheus() {
		t.Error("stdout exporter should not serve prometheus")
	}
}

func TestNewProvider_InvalidExporters(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"invalid metrics exporter", Config{Enabled: true, MetricsExporter: "invalid", TracingExporter: ExporterNone}},
		{"invalid tracing exporter", Config{Enabled: true, MetricsExporter: ExporterPrometheus, TracingExporter: "invalid"}},
		{"otlp tracing without endpoint", Config{Enabled: true, MetricsExporter: ExporterPrometheus, TracingExporter: ExporterOTLP}},
		{"otlp metrics without endpoint", Config{Enabled: true, MetricsExporter: ExporterOTLP, TracingExporter: ExporterNone}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tt.config.ServiceName = "test-service"
			if _, err := NewProvider(ctx, tt.config); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestProvider_Tracer_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if provider.Tracer("test") == nil {
		t.Error("expected tracer to be non-nil (no-op)")
	}
}
