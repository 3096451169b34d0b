package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"qvent-console/internal/domain"
	"qvent-console/pkg/errors"
	"qvent-console/pkg/logger"
	"qvent-console/pkg/utils"
)

// Service validates bearer tokens issued by the identity provider
type Service struct {
	secret []byte
	now    func() time.Time
	logger *logger.Logger
}

// NewService creates a new auth service. With an empty secret tokens are
// decoded without signature verification and only their expiry is checked;
// the upstream event backend still verifies every request it receives.
func NewService(jwtSecret string, logger *logger.Logger) *Service {
	s := &Service{
		now:    time.Now,
		logger: logger,
	}
	if jwtSecret != "" {
		s.secret = []byte(jwtSecret)
	}
	return s
}

// Verifies reports whether signatures are checked
func (s *Service) Verifies() bool {
	return len(s.secret) > 0
}

// ValidateToken parses token and returns the identity it carries
func (s *Service) ValidateToken(ctx context.Context, token string) (*domain.AuthClaims, error) {
	if !isJWTToken(token) {
		s.logger.Debug("Unrecognized token format")
		return nil, errors.NewAuthenticationError("Unrecognized token format")
	}

	claims := jwt.MapClaims{}
	if s.Verifies() {
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		}, jwt.WithTimeFunc(s.now))
		if err != nil || !parsed.Valid {
			s.logger.WithError(err).Debug("Failed to parse/validate JWT token")
			return nil, errors.NewAuthenticationError("Invalid or expired token")
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			s.logger.WithError(err).Debug("Failed to decode JWT token")
			return nil, errors.NewAuthenticationError("Invalid token")
		}
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
		if !s.now().Before(expiresAt) {
			return nil, errors.NewAuthenticationError("Token has expired")
		}
	}

	profile := domain.UserProfile{
		Sub:     firstString(claims, "sub", "user_id", "uid"),
		Name:    firstString(claims, "name"),
		Email:   firstString(claims, "email"),
		Mobile:  utils.NormalizeMobile(firstString(claims, "mobile", "phone_number")),
		IsAdmin: firstBool(claims, "is_admin", "isAdmin", "admin"),
	}

	if profile.Sub == "" {
		return nil, errors.NewAuthenticationError("Invalid token: no user identifier")
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  profile.Sub,
		"is_admin": profile.IsAdmin,
		"verified": s.Verifies(),
	}).Debug("Token validated")

	return &domain.AuthClaims{Profile: profile, ExpiresAt: expiresAt}, nil
}

// isJWTToken checks for exactly three non-empty dot separated segments
func isJWTToken(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts[:2] {
		if p == "" {
			return false
		}
	}
	return true
}

func firstString(m jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if val, ok := m[k].(string); ok && val != "" {
			return val
		}
	}
	return ""
}

func firstBool(m jwt.MapClaims, keys ...string) bool {
	for _, k := range keys {
		switch v := m[k].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if strings.EqualFold(v, "true") {
				return true
			}
		}
	}
	return false
}
