// Package session keeps the signed-in organizer's identity in Redis, keyed by
// a hash of their bearer token.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"qvent-console/internal/domain"
	"qvent-console/pkg/errors"
	"qvent-console/pkg/logger"
	"qvent-console/pkg/redis"
)

// ErrNoSession is returned when a token has no live session
var ErrNoSession = stderrors.New("session: no live session")

// Session is one signed-in organizer
type Session struct {
	ID        string             `json:"id"`
	Token     string             `json:"-"`
	Profile   domain.UserProfile `json:"profile"`
	IsAdmin   bool               `json:"isAdmin"`
	CreatedAt time.Time          `json:"createdAt"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// UserID is the owner id used to scope events and drafts
func (s *Session) UserID() string {
	return s.Profile.Sub
}

// TokenValidator turns a bearer token into verified claims
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*domain.AuthClaims, error)
}

// Store is the subset of the Redis client sessions need
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Manager creates, resolves and ends sessions
type Manager struct {
	store     Store
	keys      *redis.KeyBuilder
	validator TokenValidator
	ttl       time.Duration
	now       func() time.Time
	logger    *logger.Logger
}

// NewManager creates a session manager. ttl caps every session's lifetime.
func NewManager(store Store, keys *redis.KeyBuilder, validator TokenValidator, ttl time.Duration, log *logger.Logger) *Manager {
	if ttl <= 0 {
		ttl = redis.TTLSession
	}
	return &Manager{
		store:     store,
		keys:      keys,
		validator: validator,
		ttl:       ttl,
		now:       time.Now,
		logger:    log.Named("session"),
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (m *Manager) key(token string) string {
	return m.keys.KeySession(hashToken(token))
}

// Login validates token and stores a session for it. The session lives for
// the configured TTL or until the token expires, whichever is sooner.
func (m *Manager) Login(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, errors.NewAuthenticationError("Token is required")
	}

	claims, err := m.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	now := m.now()
	ttl := m.ttl
	if !claims.ExpiresAt.IsZero() {
		if remaining := claims.ExpiresAt.Sub(now); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return nil, errors.NewAuthenticationError("Token has expired")
	}

	sess := &Session{
		ID:        uuid.NewString(),
		Token:     token,
		Profile:   claims.Profile,
		IsAdmin:   claims.Profile.IsAdmin,
		CreatedAt: now.UTC(),
		ExpiresAt: now.Add(ttl).UTC(),
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, errors.NewInternalError("Failed to encode session", err)
	}
	if err := m.store.Set(ctx, m.key(token), payload, ttl); err != nil {
		return nil, errors.NewInternalError("Failed to store session", err)
	}

	m.logger.WithFields(map[string]interface{}{
		"user_id":    sess.UserID(),
		"session_id": sess.ID,
		"ttl":        ttl.String(),
	}).Info("Session started")

	return sess, nil
}

// Resolve returns the live session for token or ErrNoSession
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	raw, err := m.store.Get(ctx, m.key(token))
	if stderrors.Is(err, redis.ErrNil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !m.now().Before(sess.ExpiresAt) {
		return nil, ErrNoSession
	}

	sess.Token = token
	return &sess, nil
}

// Logout ends the session for token. Ending a missing session is not an error.
func (m *Manager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.store.Delete(ctx, m.key(token)); err != nil {
		return errors.NewInternalError("Failed to end session", err)
	}
	m.logger.Debug("Session ended")
	return nil
}

type ctxKey struct{}

// WithSession stores sess in ctx
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session stored by WithSession
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(*Session)
	return sess, ok && sess != nil
}
