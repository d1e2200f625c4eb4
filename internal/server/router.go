package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"photobooth/internal/auth"
	"photobooth/internal/availability/controller"
	"photobooth/internal/infrastructure/metrics"
)

type RouterConfig struct {
	MetricsEnabled bool
	MetricsPath    string
}

func NewRouter(
	availabilityCtrl *controller.AvailabilityController,
	manyChatCtrl *controller.ManyChatController,
	validator auth.TokenValidator,
	m *metrics.Metrics,
	cfg RouterConfig,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(accessLog(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if m != nil && cfg.MetricsEnabled {
		r.Method(http.MethodGet, cfg.MetricsPath, m.Handler())
	}

	r.Get("/availability", availabilityCtrl.GetAvailability)
	r.Get("/manychat/availability", manyChatCtrl.GetAvailability)

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireBearer(validator, logger))
		r.Get("/availability", availabilityCtrl.GetAdminAvailability)
		r.Get("/availability/range", availabilityCtrl.GetAdminAvailabilityRange)
	})

	return r
}

func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("request served",
				zap.String("requestId", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(started)),
			)
		})
	}
}
