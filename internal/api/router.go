package api

import (
	"net/http"
	"time"

	"chemhits/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// NewRouter wires the handlers and the metrics endpoint
func NewRouter(h *HitsHandler, m *metrics.Metrics, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Healthz)
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		if m != nil {
			r.Use(m.Middleware)
		}
		if requestTimeout > 0 {
			r.Use(middleware.Timeout(requestTimeout))
		}

		r.Get("/targets/{targetID}/hits", h.GetTargetHits)
		r.Post("/classify", h.Classify)
	})

	return r
}
