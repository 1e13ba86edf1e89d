// Package httpapi wires the HTTP surface: routes, middleware, and the
// Prometheus endpoint.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AzrielTheHellrazor/Flicks/internal/http/handlers"
	"github.com/AzrielTheHellrazor/Flicks/internal/infra"
	"github.com/AzrielTheHellrazor/Flicks/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS([]string{cfg.AppBaseURL}))

	r.Get("/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).
			Post("/generate-image", app.GenerateImage)

		r.Get("/frame", app.Frame)
		r.Post("/frame", app.FrameAction)
		r.Get("/frame/image", app.FrameImage)

		r.Post("/payments", app.RecordPayment)
		r.Get("/payments/{requestID}", app.GetPayment)

		r.Post("/bundle", app.Bundle)

		r.Get("/presets", app.Presets)
	})

	return r
}
