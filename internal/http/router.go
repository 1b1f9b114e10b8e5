// Package httpapi wires the HTTP surface: middleware stack, versioned API
// routes, and the operational endpoints.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	customerhandler "coverbase/internal/customer/handler"
	"coverbase/internal/platform/metrics"
	platformmiddleware "coverbase/internal/platform/middleware"
	policyhandler "coverbase/internal/policy/handler"
	quotehandler "coverbase/internal/quote/handler"
	"coverbase/pkg/platform/middleware/requestid"
	"coverbase/pkg/platform/middleware/requesttime"
)

// Handlers groups the feature handlers the router mounts.
type Handlers struct {
	Customer *customerhandler.Handler
	Quote    *quotehandler.Handler
	Policy   *policyhandler.Handler
}

// NewRouter builds the full router. Handlers stay thin; everything
// cross-cutting lives in middleware.
func NewRouter(h Handlers, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(platformmiddleware.Instrument(m))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/create-customer", h.Customer.Create)
		r.Get("/customers", h.Customer.Search)

		r.Post("/quotes", h.Quote.Create)
		r.Put("/quotes/{id}/status", h.Quote.UpdateStatus)

		r.Get("/policies", h.Policy.List)
		r.Get("/policies/{id}", h.Policy.Get)
		r.Put("/policies/{id}/state", h.Policy.UpdateState)
		r.Get("/policies/{id}/history", h.Policy.History)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
