package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/reclaim/internal/auth"
	"github.com/MrJamesThe3rd/reclaim/internal/http/factor"
	"github.com/MrJamesThe3rd/reclaim/internal/http/httpio"
	"github.com/MrJamesThe3rd/reclaim/internal/http/impact"
	"github.com/MrJamesThe3rd/reclaim/internal/http/item"
	"github.com/MrJamesThe3rd/reclaim/internal/http/manifest"
	"github.com/MrJamesThe3rd/reclaim/internal/http/report"
	"github.com/MrJamesThe3rd/reclaim/internal/metrics"
)

type Options struct {
	Timeout        time.Duration
	AllowedOrigins []string
}

type Handlers struct {
	Items     *item.Handler
	Reports   *report.Handler
	Factors   *factor.Handler
	Impact    *impact.Handler
	Manifests *manifest.Handler
}

func New(authn *auth.Authenticator, m *metrics.Registry, h Handlers, opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(m.Middleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpio.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", m.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		if opts.Timeout > 0 {
			r.Use(middleware.Timeout(opts.Timeout))
		}

		r.Use(authn.Middleware)

		r.Route("/items", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Items.Routes(r)
		})

		r.Route("/invoice-reports", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Reports.Routes(r)
		})

		r.Route("/factors", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Factors.Routes(r)
		})

		r.Route("/manifests", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Manifests.Routes(r)
		})

		h.Impact.Routes(r)
	})

	return router
}
