// Package http assembles the service router.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	declhandler "unireg/internal/declaration/handler"
	rlhandler "unireg/internal/ratelimit/handler"
	rlmiddleware "unireg/internal/ratelimit/middleware"
	"unireg/internal/ratelimit/models"
	rlservice "unireg/internal/ratelimit/service"
	"unireg/pkg/platform/middleware/metadata"
	"unireg/pkg/platform/middleware/requesttime"
)

// Deps carries everything the router mounts.
type Deps struct {
	Resolver     *metadata.Resolver
	Limiter      *rlservice.Service
	Declarations *declhandler.Handler
	Admin        *rlhandler.Handler
	Health       http.HandlerFunc
}

// New builds the chi router. The metadata resolver and request time run first
// so every admission check sees the resolved caller address and a stable
// request timestamp.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requesttime.Middleware)
	r.Use(deps.Resolver.Middleware)

	r.Get("/healthz", deps.Health)
	r.Handle("/metrics", promhttp.Handler())

	// The routes share the /declarations prefix but sit behind different
	// quota classes.
	mutations := r.With(rlmiddleware.RateLimit(deps.Limiter, models.ClassPrivate))
	reads := r.With(rlmiddleware.RateLimit(deps.Limiter, models.ClassRead))
	uploads := r.With(rlmiddleware.RateLimit(deps.Limiter, models.ClassUpload))
	deps.Declarations.Routes(mutations, reads, uploads)

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(rlmiddleware.RateLimit(deps.Limiter, models.ClassPrivate))
		deps.Admin.Routes(admin)
	})

	return r
}
