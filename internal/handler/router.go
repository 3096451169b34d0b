package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"qvent-console/internal/middleware"
	"qvent-console/pkg/errors"
	"qvent-console/pkg/logger"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Health  *HealthHandler
	Session *SessionHandler
	Events  *EventHandler
	Drafts  *DraftHandler
	Admin   *AdminHandler
}

// NewRouter builds the chi router for the console API
func NewRouter(h Handlers, sessions middleware.SessionResolver, cors *middleware.CORSConfig, log *logger.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.CORS(cors, log))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.AccessLog(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	r.Get("/health", h.Health.Check)

	r.Route("/api", func(r chi.Router) {
		r.Post("/session/login", h.Session.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(sessions, log))

			r.Post("/session/logout", h.Session.Logout)
			r.Get("/session/me", h.Session.Me)

			h.Events.RegisterRoutes(r)
			h.Drafts.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(log))
				h.Admin.RegisterRoutes(r)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteJSON(w, errors.NewNotFoundError("Endpoint not found"), middleware.GetRequestID(r.Context()))
	})

	return r
}
