package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chemhits/domain/bioactivity"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()
	m.ObserveRun("chembl-rest", "success", 250*time.Millisecond)
	m.ObserveRun("chembl-rest", "success", time.Second)
	m.ObserveRun("file", "error", time.Millisecond)
	m.ObserveCompounds(map[bioactivity.HitStrength]int{
		bioactivity.StrengthStrong: 2,
		bioactivity.StrengthWeak:   5,
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runsCount.WithLabelValues("chembl-rest", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsCount.WithLabelValues("file", "error")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.compoundsCount.WithLabelValues("weak")))
}

func TestMetrics_HandlerAndMiddleware(t *testing.T) {
	m := New()
	m.ObserveRun("file", "success", time.Second)

	teapot := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	teapot.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsCount.WithLabelValues("418")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpRequestsInflight))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `chemhits_runs_total{outcome="success",source="file"} 1`)
}
