package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"qvent-console/internal/domain"
	"qvent-console/internal/listing"
	"qvent-console/internal/session"
	"qvent-console/pkg/errors"
	"qvent-console/pkg/logger"
	"qvent-console/pkg/worker"
)

// UserOverview is one row of the admin overview
type UserOverview struct {
	User            domain.User `json:"user"`
	EventCount      int         `json:"eventCount"`
	ActiveCount     int         `json:"activeCount"`
	ExpiredCount    int         `json:"expiredCount"`
	SubmissionCount int         `json:"submissionCount"`
	Error           string      `json:"error,omitempty"`
}

// Overview is the admin dashboard summary across every organizer
type Overview struct {
	Users            []UserOverview `json:"users"`
	TotalUsers       int            `json:"totalUsers"`
	TotalEvents      int            `json:"totalEvents"`
	TotalSubmissions int            `json:"totalSubmissions"`
	Partial          bool           `json:"partial"`
}

// AdminService backs the admin dashboard
type AdminService struct {
	gateway EventGateway
	pool    *worker.Pool
	now     func() time.Time
	logger  *logger.Logger
}

func NewAdminService(gateway EventGateway, pool *worker.Pool, log *logger.Logger) *AdminService {
	return &AdminService{
		gateway: gateway,
		pool:    pool,
		now:     time.Now,
		logger:  log.Named("admin"),
	}
}

func requireAdmin(sess *session.Session) error {
	if sess == nil || !sess.IsAdmin {
		return errors.NewAuthorizationError("Admin access required")
	}
	return nil
}

// Users lists organizers filtered and sorted for the dashboard
func (s *AdminService) Users(ctx context.Context, sess *session.Session, q listing.UserQuery) ([]domain.User, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	users, err := s.gateway.ListUsers(ctx, sess)
	if err != nil {
		return nil, err
	}
	return listing.FilterUsers(users, q), nil
}

// UserEvents lists one organizer's events
func (s *AdminService) UserEvents(ctx context.Context, sess *session.Session, userID string, q listing.EventQuery) ([]EventView, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	events, err := s.gateway.ListUserEvents(ctx, sess, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return newEventViews(listing.FilterEvents(events, q, now), now), nil
}

// Overview fetches every organizer's events through the worker pool. A user
// whose events cannot be fetched is reported with an error and the overview
// is marked partial; credential failures abort the whole call.
func (s *AdminService) Overview(ctx context.Context, sess *session.Session) (*Overview, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	users, err := s.gateway.ListUsers(ctx, sess)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	now := s.now()
	rows := make([]UserOverview, len(users))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		fatalErr error
	)

	for i, u := range users {
		i, u := i, u
		rows[i].User = u

		wg.Add(1)
		err := s.pool.Submit(ctx, func(ctx context.Context) {
			defer wg.Done()

			events, err := s.gateway.ListUserEvents(ctx, sess, u.ID)
			if err != nil {
				rows[i].Error = errors.As(err).Message
				if errors.IsType(err, errors.ErrorTypeAuthentication) || errors.IsType(err, errors.ErrorTypeAuthorization) {
					mu.Lock()
					if fatalErr == nil {
						fatalErr = err
					}
					mu.Unlock()
					cancel()
				}
				return
			}

			for _, ev := range events {
				rows[i].EventCount++
				rows[i].SubmissionCount += ev.SubmissionCount
				if ev.IsExpired(now) {
					rows[i].ExpiredCount++
				} else {
					rows[i].ActiveCount++
				}
			}
		})
		if err != nil {
			// never queued
			wg.Done()
			rows[i].Error = err.Error()
		}
	}
	wg.Wait()

	if fatalErr != nil {
		return nil, fatalErr
	}

	out := &Overview{Users: rows, TotalUsers: len(rows)}
	for _, r := range rows {
		if r.Error != "" {
			out.Partial = true
		}
		out.TotalEvents += r.EventCount
		out.TotalSubmissions += r.SubmissionCount
	}

	sort.SliceStable(out.Users, func(a, b int) bool {
		return out.Users[a].EventCount > out.Users[b].EventCount
	})

	s.logger.WithFields(map[string]interface{}{
		"users":   out.TotalUsers,
		"events":  out.TotalEvents,
		"partial": out.Partial,
	}).Debug("Admin overview built")

	return out, nil
}
