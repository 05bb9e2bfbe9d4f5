package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/tracing"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/handlers"
	authmw "github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/middleware"
)

type Handlers struct {
	Events     *handlers.EventsHandler
	Users      *handlers.UsersHandler
	UserEvents *handlers.UserEventsHandler
	Reports    *handlers.ReportsHandler
	Health     *handlers.HealthHandler
}

func New(h Handlers, auth *authmw.AuthMiddleware, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(authmw.RequestID)
	r.Use(authmw.SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(authmw.AccessLog)
	r.Use(authmw.Metrics)

	if cfg.OTelEnabled {
		r.Use(tracing.Middleware("meetup-service"))
	}
	if cfg.RLEnabled {
		r.Use(httprate.LimitByIP(cfg.RLLimit, cfg.RLWindow))
	}

	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Require)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.Events.List)
			r.Post("/", h.Events.Create)
			r.Get("/distances", h.Events.ListWithDistance)
			r.Get("/{id}", h.Events.Get)
			r.Put("/{id}", h.Events.Update)
			r.Delete("/{id}", h.Events.Delete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.Users.List)
			r.Post("/", h.Users.Create)
			r.Get("/{id}", h.Users.Get)
			r.Put("/{id}", h.Users.Update)
			r.Delete("/{id}", h.Users.Delete)
		})

		r.Route("/user-events", func(r chi.Router) {
			r.Get("/", h.UserEvents.List)
			r.Post("/", h.UserEvents.Join)
			r.Get("/{id}", h.UserEvents.Get)
			r.Put("/{id}", h.UserEvents.Update)
			r.Delete("/{id}", h.UserEvents.Leave)
		})

		r.Get("/reports/distances", h.Reports.EventDistances)
	})

	return r
}
