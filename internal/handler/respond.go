// Package handler exposes the console flows over HTTP.
package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"qvent-console/internal/middleware"
	"qvent-console/internal/session"
	"qvent-console/pkg/errors"
	"qvent-console/pkg/logger"
)

const maxBodyBytes = 1 << 20

// ValidationResponse is the body of a 422 reply
type ValidationResponse struct {
	Valid   bool                   `json:"valid"`
	Message string                 `json:"message,omitempty"`
	Errors  map[string]interface{} `json:"errors"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError renders err. Validation errors keep the per-field shape the
// form binds to; everything else uses the standard error envelope.
func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	appErr := errors.As(err)
	requestID := middleware.GetRequestID(r.Context())

	if appErr.Type == errors.ErrorTypeValidation {
		details := appErr.Details
		if details == nil {
			details = map[string]interface{}{}
		}
		respondJSON(w, appErr.StatusCode, ValidationResponse{
			Valid:   false,
			Message: appErr.Message,
			Errors:  details,
		})
		return
	}

	entry := log.WithError(appErr).WithFields(map[string]interface{}{
		"request_id": requestID,
		"method":     r.Method,
		"path":       r.URL.Path,
	})
	if appErr.StatusCode >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	errors.WriteJSON(w, appErr, requestID)
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v alone.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return nil
		}
		return errors.NewBadRequestError("Invalid request body")
	}
	return nil
}

func currentSession(r *http.Request) (*session.Session, error) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return nil, errors.NewAuthenticationError("Authentication required")
	}
	return sess, nil
}

func intParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, errors.NewBadRequestError("Invalid " + name)
	}
	return n, nil
}

// queryInt parses a positive query value, falling back to def
func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}
