package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.LoginAttempts.WithLabelValues(OutcomeSuccess).Inc()

	require.Contains(t, scrape(t, a), `trackify_login_attempts_total{outcome="success"} 1`)
	require.NotContains(t, scrape(t, b), `trackify_login_attempts_total{outcome="success"}`)
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.RatingRecomputeFailures.Inc()

	body := scrape(t, m)
	require.Contains(t, body, "trackify_rating_recompute_failures_total 1")
	require.Contains(t, body, "go_goroutines")
}
