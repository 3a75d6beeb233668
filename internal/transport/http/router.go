package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"passport-iam/internal/platform/health"
	"passport-iam/pkg/platform/middleware/request"
	"passport-iam/pkg/platform/middleware/requesttime"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	Clock          clock.Clock
	// Gatherer serves /metrics when set.
	Gatherer       prometheus.Gatherer
	RequestMetrics *request.Metrics
}

// NewRouter wires the middleware stack, probes, metrics and pipeline routes.
func NewRouter(cfg RouterConfig, h *Handler, probes *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.ClientIP)
	r.Use(request.Logger(logger))
	r.Use(request.LatencyMiddleware(cfg.RequestMetrics))

	if probes != nil {
		probes.Register(r)
	}
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route(APIPrefix, func(api chi.Router) {
		if cfg.RequestTimeout > 0 {
			api.Use(request.Timeout(cfg.RequestTimeout))
		}
		if cfg.MaxBodyBytes > 0 {
			api.Use(request.BodyLimit(cfg.MaxBodyBytes))
		}
		api.Use(request.ContentTypeJSON)
		api.Use(requesttime.Middleware(cfg.Clock))
		h.Register(api)
	})

	return r
}
