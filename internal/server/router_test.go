package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"photobooth/internal/auth"
	"photobooth/internal/availability/controller"
	"photobooth/internal/availability/service"
	"photobooth/internal/availability/usecase"
	"photobooth/internal/dates"
	"photobooth/internal/domain"
	"photobooth/internal/infrastructure/metrics"
)

const testSecret = "router-secret"

type staticSource struct {
	records []domain.Reservation
}

func (s *staticSource) Name() string { return "static" }

func (s *staticSource) ListReservations(ctx context.Context) ([]domain.Reservation, error) {
	return s.records, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	source := &staticSource{records: []domain.Reservation{
		{ID: "B-1", ReservationDate: "2026-02-26"},
		{ID: "B-2", ReservationDate: "26/02/2026"},
		{ID: "B-3", ReservationDate: "garbage"},
	}}
	normalizer := dates.NewNormalizer(time.UTC, logger)
	calc := service.NewCapacityCalculator(service.Config{TotalCapacity: 4, MaxRangeDays: 62}, normalizer)
	uc := usecase.NewCheckAvailabilityUseCase(source, calc, logger)

	return NewRouter(
		controller.NewAvailabilityController(uc, logger),
		controller.NewManyChatController(uc, logger),
		auth.NewJWTValidator(testSecret),
		metrics.New(),
		RouterConfig{MetricsEnabled: true, MetricsPath: "/metrics"},
		logger,
	)
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "owner",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicAvailability(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/availability?date=2026-02-26", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"date":"2026-02-26","total_capacity":4,"reserved":2,"remaining":2,"available":true}`, rec.Body.String())
}

func TestRouter_PublicAvailability_InvalidDate(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/availability?date=2026-13-40", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid_date","raw":"2026-13-40"}`, rec.Body.String())
}

func TestRouter_PublicAvailability_BareYearIsInvalid(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/availability?date=2026", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid_date","raw":"2026"}`, rec.Body.String())
}

func TestRouter_AdminRequiresToken(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/admin/availability?date=2026-02-26", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_AdminAvailability(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/admin/availability?date=2026-02-26", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))

	rec := serve(router, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.ElementsMatch(t, []any{"B-1", "B-2"}, body["matched_ids"])
	assert.Equal(t, float64(1), body["skipped"])
	assert.NotEmpty(t, body["trace_id"])
}

func TestRouter_AdminRange(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/admin/availability/range?from=2026-02-25&to=2026-02-27", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))

	rec := serve(router, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Days []map[string]any `json:"days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Days, 3)
	assert.Equal(t, float64(2), body.Days[1]["reserved"])
}

func TestRouter_ManyChat(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/manychat/availability?date=not-a-date", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"v2"`)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	health := serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, health.Code)
	assert.JSONEq(t, `{"status":"ok"}`, health.Body.String())

	serve(router, httptest.NewRequest(http.MethodGet, "/availability?date=2026-02-26", nil))
	m := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), `photobooth_http_requests_total{method="GET",route="/availability",status="200"} 1`)
}
