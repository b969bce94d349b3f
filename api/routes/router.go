package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/sales-analytics/api/controllers"
	"github.com/angelmondragon/sales-analytics/api/controllers/proxy"
	"github.com/angelmondragon/sales-analytics/api/middleware"
	"github.com/angelmondragon/sales-analytics/internal/analytics"
	"github.com/angelmondragon/sales-analytics/pkg/config"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/metrics"
)

// Dependencies are the services the router wires into handlers. Optional
// members may be nil.
type Dependencies struct {
	Analytics  analytics.Service
	Normalizer proxy.Normalizer
	// DemoSource backs /api/orders when mock routes are enabled.
	DemoSource analytics.Source
	// Cache is pinged by the readiness probe.
	Cache controllers.Pinger
	// HTTPMetrics and MetricsHandler are nil when metrics are disabled.
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.CORS(),
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
	)

	r.NotFound(controllers.NotFound(logg))
	r.MethodNotAllowed(controllers.MethodNotAllowed(logg))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Cache))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		// The handlers own method dispatch so preflights and 405s share
		// the proxy's response contract.
		r.HandleFunc("/proxy", proxy.Orders(deps.Analytics, deps.Normalizer, logg))

		if cfg.Mock.Routes && deps.DemoSource != nil {
			r.HandleFunc("/orders", proxy.DemoOrders(deps.DemoSource, deps.Normalizer, logg))
		}
	})

	return r
}
