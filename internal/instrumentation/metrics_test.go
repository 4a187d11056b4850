package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

// counterValue sums the data points of an Int64 counter whose attributes
// contain every key/value in want.
func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string, want map[string]string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if hasAttrs(dp.Attributes, want) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func hasAttrs(set attribute.Set, want map[string]string) bool {
	for k, v := range want {
		got, ok := set.Value(attribute.Key(k))
		if !ok || got.AsString() != v {
			return false
		}
	}
	return true
}

func TestMetrics_RecordTurn(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordTurn(ctx, "create", "success", 2*time.Second)
	m.RecordTurn(ctx, "create", "gateway_failure", time.Second)
	m.RecordTurn(ctx, "reschedule", "success", time.Second)

	assert.Equal(t, int64(1), counterValue(t, reader, "assistant_turns_total", map[string]string{"intent": "create", "outcome": "success"}))
	assert.Equal(t, int64(2), counterValue(t, reader, "assistant_turns_total", map[string]string{"intent": "create"}))
	assert.Equal(t, int64(1), counterValue(t, reader, "assistant_turns_total", map[string]string{"intent": StatusUnknown}))
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "POST", "/whatsapp", 200, 100*time.Millisecond)
	m.RecordHTTPRequest(ctx, "GET", "/wp-admin/install.php", 404, time.Millisecond)

	assert.Equal(t, int64(1), counterValue(t, reader, "http_requests_total", map[string]string{"path": "/whatsapp", "status": "200"}))
	assert.Equal(t, int64(1), counterValue(t, reader, "http_requests_total", map[string]string{"path": "other"}))
}

func TestMetrics_RecordGoogleAPIOperation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordGoogleAPIOperation(ctx, ServiceCalendar, "create", StatusSuccess, 200*time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceCalendar, "patch", StatusError, 500*time.Millisecond)

	assert.Equal(t, int64(1), counterValue(t, reader, "google_api_operations_total", map[string]string{"operation": "patch", "status": StatusError}))
}

func TestMetrics_RecordLLMNotificationAndOAuth(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordLLMRequest(ctx, LLMResultInvalid, time.Second)
	m.RecordNotification(ctx, StatusError)
	m.RecordOAuthAuth(ctx, OAuthResultReauth)

	assert.Equal(t, int64(1), counterValue(t, reader, "llm_requests_total", map[string]string{"result": LLMResultInvalid}))
	assert.Equal(t, int64(1), counterValue(t, reader, "notifications_total", map[string]string{"status": StatusError}))
	assert.Equal(t, int64(1), counterValue(t, reader, "oauth_auth_total", map[string]string{"result": OAuthResultReauth}))
}

func TestMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()

	var nilMetrics *Metrics
	zero := &Metrics{}

	for _, m := range []*Metrics{nilMetrics, zero} {
		// Should not panic
		m.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
		m.RecordTurn(ctx, "query", "success", time.Millisecond)
		m.RecordGoogleAPIOperation(ctx, ServiceCalendar, "list", StatusSuccess, time.Millisecond)
		m.RecordLLMRequest(ctx, LLMResultSuccess, time.Millisecond)
		m.RecordNotification(ctx, StatusSuccess)
		m.RecordOAuthAuth(ctx, OAuthResultSuccess)
	}
}
