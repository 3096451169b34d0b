package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"qvent-console/internal/session"
	"qvent-console/pkg/errors"
	"qvent-console/pkg/logger"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// SessionResolver looks up the live session for a bearer token
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, error)
}

// BearerToken extracts the token from an Authorization header
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.NewAuthenticationError("Authorization header is required")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.NewAuthenticationError("Invalid authorization header format")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", errors.NewAuthenticationError("Token is required")
	}
	return token, nil
}

// Session resolves the caller's session from the bearer token and stores it
// in the request context. Requests without a live session get 401.
func Session(sessions SessionResolver, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				writeErrorResponse(w, r, err, logger)
				return
			}

			ctx := r.Context()
			sess, err := sessions.Resolve(ctx, token)
			if stderrors.Is(err, session.ErrNoSession) {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Session expired or not found, please log in again"), logger)
				return
			}
			if err != nil {
				writeErrorResponse(w, r, err, logger)
				return
			}

			logger.WithField("user_id", sess.UserID()).Debug("Session resolved")

			next.ServeHTTP(w, r.WithContext(session.WithSession(ctx, sess)))
		})
	}
}

// RequireAdmin rejects callers whose session is not an admin session. It
// must run after Session.
func RequireAdmin(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Authentication required"), logger)
				return
			}
			if !sess.IsAdmin {
				logger.WithFields(map[string]interface{}{
					"user_id": sess.UserID(),
					"path":    r.URL.Path,
				}).Warn("Admin access denied")
				writeErrorResponse(w, r, errors.NewAuthorizationError("Admin access required"), logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID tags each request with an id, reusing an incoming X-Request-ID
func RequestID(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > 64 {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			w.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID returns the id set by RequestID, or ""
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// writeErrorResponse writes an error response to the client
func writeErrorResponse(w http.ResponseWriter, r *http.Request, err error, logger *logger.Logger) {
	appErr := errors.As(err)
	requestID := GetRequestID(r.Context())

	log := logger.WithError(appErr).WithField("request_id", requestID)
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.Error("Request error")
	} else {
		log.Debug("Request rejected")
	}

	errors.WriteJSON(w, appErr, requestID)
}
