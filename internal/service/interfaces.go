package service

import (
	"context"

	"qvent-console/internal/domain"
	"qvent-console/internal/session"
)

// EventGateway is the event backend the console drives. Every call acts on
// behalf of the session's user.
type EventGateway interface {
	ListEvents(ctx context.Context, sess *session.Session) ([]domain.Event, error)
	CreateEvent(ctx context.Context, sess *session.Session, draft domain.EventDraft) (*domain.Event, error)
	UpdateEvent(ctx context.Context, sess *session.Session, id string, draft domain.EventDraft) (*domain.Event, error)
	DeleteEvent(ctx context.Context, sess *session.Session, id string) error
	ListSubmissions(ctx context.Context, sess *session.Session, eventID string) ([]domain.SubmissionRow, error)

	// Admin only
	ListUsers(ctx context.Context, sess *session.Session) ([]domain.User, error)
	ListUserEvents(ctx context.Context, sess *session.Session, userID string) ([]domain.Event, error)
}
