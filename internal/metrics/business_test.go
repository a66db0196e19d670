package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMetricLine checks that the Prometheus output contains a metric matching
// the given name, partial label pattern, and value. Uses a regex to tolerate
// the extra OTel scope labels injected by the Prometheus exporter.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func scrapeMetrics(t *testing.T, provider *Provider) string {
	t.Helper()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	provider.Handler().ServeHTTP(recorder, request)

	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewBusinessMetrics(t *testing.T) {
	provider, err := NewProvider("selfservice")
	require.NoError(t, err)

	businessMetrics, err := NewBusinessMetrics(provider.MeterProvider(), "selfservice")

	require.NoError(t, err)
	assert.NotNil(t, businessMetrics)
}

func TestBusinessMetrics_RecordOperation(t *testing.T) {
	provider, err := NewProvider("selfservice")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "selfservice")
	require.NoError(t, err)

	bm.RecordOperation(context.Background(), "membership", "application_submit", "success")
	bm.RecordOperation(context.Background(), "membership", "application_submit", "success")
	bm.RecordOperation(context.Background(), "outbox", "relay_publish", "error")

	output := scrapeMetrics(t, provider)
	assertMetricLine(t, output, "selfservice_operations_total",
		`operation="application_submit"`, "2")
	assertMetricLine(t, output, "selfservice_operations_total",
		`operation="relay_publish"`, "1")
}

func TestBusinessMetrics_RecordDuration(t *testing.T) {
	provider, err := NewProvider("selfservice")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "selfservice")
	require.NoError(t, err)

	bm.RecordDuration(context.Background(), "membership", "application_approve", 250*time.Millisecond, "success")

	output := scrapeMetrics(t, provider)
	assert.Contains(t, output, "selfservice_operation_duration_seconds")
}

func TestNoOpBusinessMetrics(t *testing.T) {
	bm := NewNoOpBusinessMetrics()

	// Must be safe to call without a provider.
	bm.RecordOperation(context.Background(), "membership", "application_submit", "success")
	bm.RecordDuration(context.Background(), "membership", "application_submit", time.Second, "success")
}
