package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/leads/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	matched := requestsTotal.WithLabelValues(http.MethodGet, "/leads/{id}", "404")
	unmatched := requestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	before, beforeUnmatched := testutil.ToFloat64(matched), testutil.ToFloat64(unmatched)

	for _, path := range []string{"/leads/5", "/leads/6", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, before+2, testutil.ToFloat64(matched))
	assert.Equal(t, beforeUnmatched+1, testutil.ToFloat64(unmatched))
	assert.Equal(t, float64(0), testutil.ToFloat64(inFlight))
}

func TestRecordActivityCountsUnitsOfClosingsOnly(t *testing.T) {
	units := testutil.ToFloat64(unitsClosed)
	won := testutil.ToFloat64(activitiesRecorded.WithLabelValues("closing", "won"))

	RecordActivity("closing", "won", 2.5)
	RecordActivity("call", "answered", 0)

	assert.Equal(t, won+1, testutil.ToFloat64(activitiesRecorded.WithLabelValues("closing", "won")))
	assert.InDelta(t, units+2.5, testutil.ToFloat64(unitsClosed), 1e-9)
}
