package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"qvent-console/internal/listing"
	"qvent-console/internal/service"
	"qvent-console/pkg/logger"
)

// AdminHandler serves the admin dashboard
type AdminHandler struct {
	admin  *service.AdminService
	logger *logger.Logger
}

func NewAdminHandler(admin *service.AdminService, logger *logger.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// Users handles GET /api/admin/users?search&sort
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	q := r.URL.Query()
	users, err := h.admin.Users(r.Context(), sess, listing.UserQuery{
		Search: q.Get("search"),
		SortBy: q.Get("sort"),
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

// UserEvents handles GET /api/admin/users/{id}/events?search&sort&show_expired
func (h *AdminHandler) UserEvents(w http.ResponseWriter, r *http.Request) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	q := r.URL.Query()
	views, err := h.admin.UserEvents(r.Context(), sess, chi.URLParam(r, "id"), listing.EventQuery{
		Search:      q.Get("search"),
		SortBy:      q.Get("sort"),
		ShowExpired: queryBool(r, "show_expired"),
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": views,
		"count":  len(views),
	})
}

// Overview handles GET /api/admin/overview
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	overview, err := h.admin.Overview(r.Context(), sess)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

// RegisterRoutes registers admin routes. r must carry the session and admin
// middleware.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/users", h.Users)
		r.Get("/users/{id}/events", h.UserEvents)
		r.Get("/overview", h.Overview)
	})
}
