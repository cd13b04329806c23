package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, c.Write(&out))
	return out.GetCounter().GetValue()
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordInteraction("completed")
	a.RecordInteraction("completed")
	b.RecordInteraction("failed")

	assert.Equal(t, 2.0, counterValue(t, a.InteractionsTotal.WithLabelValues("completed")))
	assert.Equal(t, 0.0, counterValue(t, b.InteractionsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, counterValue(t, b.InteractionsTotal.WithLabelValues("failed")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordHTTPRequest("GET", "/x", 200, time.Millisecond)
		m.RecordGatewayCall("openai", "success", time.Second)
		m.RecordTokens(1, 2)
		m.RecordNormalizerOutcome("strict")
		m.RecordInteraction("completed")
		m.RecordTitleAssigned()
		m.RecordRateLimited()
		m.TrackInFlight()()
	})
	assert.Nil(t, m.Registry())
}

func TestHandler_ExposesRecordedSeries(t *testing.T) {
	m := NewMetrics()
	m.RecordNormalizerOutcome("extracted")
	m.RecordGatewayCall("gpt-4o-mini", "TIMEOUT", 2*time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `converse_normalizer_outcomes_total{outcome="extracted"} 1`)
	assert.Contains(t, string(body), `converse_gateway_requests_total{model="gpt-4o-mini",outcome="TIMEOUT"} 1`)
}
