package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"qvent-console/internal/domain"
	"qvent-console/internal/listing"
	"qvent-console/internal/service"
	"qvent-console/internal/submissions"
	"qvent-console/pkg/logger"
)

// EventHandler serves the organizer's events and their submissions
type EventHandler struct {
	events      *service.EventService
	submissions *service.SubmissionService
	logger      *logger.Logger
}

func NewEventHandler(events *service.EventService, subs *service.SubmissionService, logger *logger.Logger) *EventHandler {
	return &EventHandler{events: events, submissions: subs, logger: logger}
}

// List handles GET /api/events?search&sort&show_expired
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	q := r.URL.Query()
	views, err := h.events.List(r.Context(), sess, listing.EventQuery{
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

// Get handles GET /api/events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	ev, err := h.events.Load(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, ev)
}

// Create handles POST /api/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "")
}

// Update handles PUT /api/events/{id}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, chi.URLParam(r, "id"))
}

func (h *EventHandler) save(w http.ResponseWriter, r *http.Request, existingID string) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var draft domain.EventDraft
	if err := decodeJSON(r, &draft); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	result, err := h.events.Submit(r.Context(), sess, draft, existingID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	respondJSON(w, status, result)
}

// Delete handles DELETE /api/events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	note, err := h.events.Delete(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"notification": note})
}

// Share handles GET /api/events/{id}/share
func (h *EventHandler) Share(w http.ResponseWriter, r *http.Request) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	links, err := h.events.Share(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, links)
}

// Submissions handles GET /api/events/{id}/submissions?search&sort&order&page
func (h *EventHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	q := r.URL.Query()
	table, err := h.submissions.Table(r.Context(), sess, chi.URLParam(r, "id"), submissions.Query{
		Search:    q.Get("search"),
		SortField: q.Get("sort"),
		SortOrder: submissions.ParseOrder(q.Get("order")),
		Page:      queryInt(r, "page", 1),
		PageSize:  queryInt(r, "page_size", h.submissions.PageSize()),
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, table)
}

// RegisterRoutes registers event routes. r must carry the session middleware.
func (h *EventHandler) RegisterRoutes(r chi.Router) {
	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Get("/share", h.Share)
			r.Get("/submissions", h.Submissions)
		})
	})
}
