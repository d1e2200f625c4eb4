package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "photobooth/internal/errors"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/availability", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	for _, q := range []string{"?date=a", "?date=b"} {
		req := httptest.NewRequest(http.MethodGet, "/availability"+q, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/availability", "GET", "400")))
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("unmatched", "GET", "404")))
}

func TestObserveSourceRead_Outcomes(t *testing.T) {
	m := New()

	m.ObserveSourceRead("sheets", nil, 10*time.Millisecond)
	m.ObserveSourceRead("sheets", apperrors.NewSchemaMismatchError("sheets", "Datum", nil), time.Millisecond)
	m.ObserveSourceRead("sheets", errors.New("boom"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sourceReads.WithLabelValues("sheets", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sourceReads.WithLabelValues("sheets", "schema_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sourceReads.WithLabelValues("sheets", "unavailable")))
}

func TestDateFallbackAndSkipped(t *testing.T) {
	m := New()

	m.DateFallback()
	m.DateFallback()
	m.RecordSkipped("postgres", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dateFallbacks))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.skippedRecords.WithLabelValues("postgres")))
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.DateFallback()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "date_normalizer_fallback_total 1"))
	assert.Contains(t, body, "go_goroutines")
}
