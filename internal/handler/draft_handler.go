package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"qvent-console/internal/formbuilder"
	"qvent-console/internal/service"
	"qvent-console/pkg/errors"
	"qvent-console/pkg/logger"
)

// DraftHandler serves the server-side create and edit form
type DraftHandler struct {
	drafts *service.DraftService
	logger *logger.Logger
}

func NewDraftHandler(drafts *service.DraftService, logger *logger.Logger) *DraftHandler {
	return &DraftHandler{drafts: drafts, logger: logger}
}

type createDraftRequest struct {
	FromEventID string `json:"fromEventId"`
}

type optionRequest struct {
	Value string `json:"value"`
}

// draftEdit is the common shape of a handler that changes a draft
func (h *DraftHandler) draftEdit(edit func(r *http.Request) (*service.Draft, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := edit(r)
		if err != nil {
			respondError(w, r, h.logger, err)
			return
		}
		respondJSON(w, http.StatusOK, d)
	}
}

// Create handles POST /api/drafts
func (h *DraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req createDraftRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	d, err := h.drafts.Create(r.Context(), sess, req.FromEventID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

// List handles GET /api/drafts
func (h *DraftHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	drafts, err := h.drafts.List(r.Context(), sess)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"drafts": drafts})
}

// Get handles GET /api/drafts/{id}
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.draftEdit(func(r *http.Request) (*service.Draft, error) {
		sess, err := currentSession(r)
		if err != nil {
			return nil, err
		}
		return h.drafts.Get(r.Context(), sess, chi.URLParam(r, "id"))
	})(w, r)
}

// UpdateMeta handles PATCH /api/drafts/{id}
func (h *DraftHandler) UpdateMeta(w http.ResponseWriter, r *http.Request) {
	h.draftEdit(func(r *http.Request) (*service.Draft, error) {
		sess, err := currentSession(r)
		if err != nil {
			return nil, err
		}
		var patch service.MetaPatch
		if err := decodeJSON(r, &patch); err != nil {
			return nil, err
		}
		return h.drafts.UpdateMeta(r.Context(), sess, chi.URLParam(r, "id"), patch)
	})(w, r)
}

// Discard handles DELETE /api/drafts/{id}
func (h *DraftHandler) Discard(w http.ResponseWriter, r *http.Request) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.drafts.Discard(r.Context(), sess, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddField handles POST /api/drafts/{id}/fields
func (h *DraftHandler) AddField(w http.ResponseWriter, r *http.Request) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	d, err := h.drafts.AddField(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

// UpdateField handles PATCH /api/drafts/{id}/fields/{index}. The body is one
// {"key","value"} update or an array of them.
func (h *DraftHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	h.draftEdit(func(r *http.Request) (*service.Draft, error) {
		sess, err := currentSession(r)
		if err != nil {
			return nil, err
		}
		index, err := intParam(r, "index")
		if err != nil {
			return nil, err
		}
		updates, err := decodeFieldUpdates(r)
		if err != nil {
			return nil, err
		}
		return h.drafts.UpdateField(r.Context(), sess, chi.URLParam(r, "id"), index, updates)
	})(w, r)
}

func decodeFieldUpdates(r *http.Request) ([]formbuilder.FieldUpdate, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid request body")
	}
	raw = bytes.TrimSpace(raw)

	var updates []formbuilder.FieldUpdate
	if len(raw) > 0 && raw[0] == '[' {
		err = json.Unmarshal(raw, &updates)
	} else {
		var one formbuilder.FieldUpdate
		if err = json.Unmarshal(raw, &one); err == nil {
			updates = []formbuilder.FieldUpdate{one}
		}
	}
	if err != nil {
		return nil, errors.NewBadRequestError("Invalid request body")
	}
	return updates, nil
}

// RemoveField handles DELETE /api/drafts/{id}/fields/{index}
func (h *DraftHandler) RemoveField(w http.ResponseWriter, r *http.Request) {
	h.draftEdit(func(r *http.Request) (*service.Draft, error) {
		sess, err := currentSession(r)
		if err != nil {
			return nil, err
		}
		index, err := intParam(r, "index")
		if err != nil {
			return nil, err
		}
		return h.drafts.RemoveField(r.Context(), sess, chi.URLParam(r, "id"), index)
	})(w, r)
}

// AddOption handles POST /api/drafts/{id}/fields/{index}/options
func (h *DraftHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	h.draftEdit(func(r *http.Request) (*service.Draft, error) {
		sess, err := currentSession(r)
		if err != nil {
			return nil, err
		}
		index, err := intParam(r, "index")
		if err != nil {
			return nil, err
		}
		return h.drafts.AddOption(r.Context(), sess, chi.URLParam(r, "id"), index)
	})(w, r)
}

// UpdateOption handles PUT /api/drafts/{id}/fields/{index}/options/{option}
func (h *DraftHandler) UpdateOption(w http.ResponseWriter, r *http.Request) {
	h.draftEdit(func(r *http.Request) (*service.Draft, error) {
		sess, err := currentSession(r)
		if err != nil {
			return nil, err
		}
		index, err := intParam(r, "index")
		if err != nil {
			return nil, err
		}
		option, err := intParam(r, "option")
		if err != nil {
			return nil, err
		}
		var req optionRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return h.drafts.UpdateOption(r.Context(), sess, chi.URLParam(r, "id"), index, option, req.Value)
	})(w, r)
}

// RemoveOption handles DELETE /api/drafts/{id}/fields/{index}/options/{option}
func (h *DraftHandler) RemoveOption(w http.ResponseWriter, r *http.Request) {
	h.draftEdit(func(r *http.Request) (*service.Draft, error) {
		sess, err := currentSession(r)
		if err != nil {
			return nil, err
		}
		index, err := intParam(r, "index")
		if err != nil {
			return nil, err
		}
		option, err := intParam(r, "option")
		if err != nil {
			return nil, err
		}
		return h.drafts.RemoveOption(r.Context(), sess, chi.URLParam(r, "id"), index, option)
	})(w, r)
}

// Validate handles POST /api/drafts/{id}/validate. An invalid draft answers
// 422 with the same body as a rejected submit.
func (h *DraftHandler) Validate(w http.ResponseWriter, r *http.Request) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	result, err := h.drafts.Validate(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if !result.Valid {
		respondError(w, r, h.logger, errors.NewValidationError("Please fix the highlighted fields", result.Details()))
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Submit handles POST /api/drafts/{id}/submit
func (h *DraftHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	result, err := h.drafts.Submit(r.Context(), sess, chi.URLParam(r, "id"))
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

// RegisterRoutes registers draft routes. r must carry the session middleware.
func (h *DraftHandler) RegisterRoutes(r chi.Router) {
	r.Route("/drafts", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Patch("/", h.UpdateMeta)
			r.Delete("/", h.Discard)
			r.Post("/validate", h.Validate)
			r.Post("/submit", h.Submit)
			r.Route("/fields", func(r chi.Router) {
				r.Post("/", h.AddField)
				r.Patch("/{index}", h.UpdateField)
				r.Delete("/{index}", h.RemoveField)
				r.Post("/{index}/options", h.AddOption)
				r.Put("/{index}/options/{option}", h.UpdateOption)
				r.Delete("/{index}/options/{option}", h.RemoveOption)
			})
		})
	})
}
