package handler

import (
	"context"
	"net/http"

	"qvent-console/internal/middleware"
	"qvent-console/internal/session"
	"qvent-console/pkg/errors"
	"qvent-console/pkg/logger"
)

// SessionManager starts and ends sessions
type SessionManager interface {
	Login(ctx context.Context, token string) (*session.Session, error)
	Logout(ctx context.Context, token string) error
}

// SessionHandler handles /api/session
type SessionHandler struct {
	sessions SessionManager
	logger   *logger.Logger
}

func NewSessionHandler(sessions SessionManager, logger *logger.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

type loginRequest struct {
	Token string `json:"token"`
}

// SessionResponse describes the caller's session
type SessionResponse struct {
	Session *session.Session `json:"session"`
}

// Login handles POST /api/session/login. The token comes from the bearer
// header or, failing that, the request body.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		var req loginRequest
		if decodeErr := decodeJSON(r, &req); decodeErr != nil {
			respondError(w, r, h.logger, decodeErr)
			return
		}
		if req.Token == "" {
			respondError(w, r, h.logger, err)
			return
		}
		token = req.Token
	}

	sess, err := h.sessions.Login(r.Context(), token)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, SessionResponse{Session: sess})
}

// Logout handles POST /api/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.sessions.Logout(r.Context(), sess.Token); err != nil {
		respondError(w, r, h.logger, errors.NewInternalError("Failed to end session", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/session/me
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, err := currentSession(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, SessionResponse{Session: sess})
}
