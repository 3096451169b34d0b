package service

import (
	"context"
	"sync"
	"time"

	"qvent-console/internal/domain"
	"qvent-console/internal/notify"
	"qvent-console/internal/session"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeGateway struct {
	mu sync.Mutex

	events      []domain.Event
	submissions map[string][]domain.SubmissionRow
	users       []domain.User
	userEvents  map[string][]domain.Event

	listErr      error
	saveErr      error
	deleteErr    error
	userEventErr map[string]error

	creates []domain.EventDraft
	updates map[string]domain.EventDraft
	deletes []string
	calls   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		submissions:  map[string][]domain.SubmissionRow{},
		userEvents:   map[string][]domain.Event{},
		userEventErr: map[string]error{},
		updates:      map[string]domain.EventDraft{},
	}
}

func (f *fakeGateway) count() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeGateway) ListEvents(ctx context.Context, sess *session.Session) ([]domain.Event, error) {
	f.count()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Event, len(f.events))
	copy(out, f.events)
	return out, nil
}

func (f *fakeGateway) CreateEvent(ctx context.Context, sess *session.Session, draft domain.EventDraft) (*domain.Event, error) {
	f.count()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.creates = append(f.creates, draft)
	return &domain.Event{ID: "created-1", EventDraft: draft, OwnerID: sess.UserID()}, nil
}

func (f *fakeGateway) UpdateEvent(ctx context.Context, sess *session.Session, id string, draft domain.EventDraft) (*domain.Event, error) {
	f.count()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.updates[id] = draft
	return &domain.Event{ID: id, EventDraft: draft}, nil
}

func (f *fakeGateway) DeleteEvent(ctx context.Context, sess *session.Session, id string) error {
	f.count()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeGateway) ListSubmissions(ctx context.Context, sess *session.Session, eventID string) ([]domain.SubmissionRow, error) {
	f.count()
	return f.submissions[eventID], nil
}

func (f *fakeGateway) ListUsers(ctx context.Context, sess *session.Session) ([]domain.User, error) {
	f.count()
	return f.users, nil
}

func (f *fakeGateway) ListUserEvents(ctx context.Context, sess *session.Session, userID string) ([]domain.Event, error) {
	f.count()
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.userEventErr[userID]; err != nil {
		return nil, err
	}
	return f.userEvents[userID], nil
}

type recordingNotifier struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return nil
}

func organizer() *session.Session {
	return &session.Session{ID: "s1", Token: "tok", Profile: domain.UserProfile{Sub: "u1", Name: "Organizer"}}
}

func admin() *session.Session {
	return &session.Session{ID: "s2", Token: "tok", Profile: domain.UserProfile{Sub: "admin", IsAdmin: true}, IsAdmin: true}
}

func validDraft() domain.EventDraft {
	return domain.EventDraft{
		Name:         "Community Running Meetup",
		EventDate:    fixedNow.Add(72 * time.Hour),
		Location:     "City Park",
		ContactName:  "Jordan",
		ContactPhone: "98765 43210",
		ContactEmail: "jordan@example.com",
		Fields: []domain.FieldSchema{
			{ID: "f1", Label: "Full Name", Type: domain.FieldTypeText, Required: true, Options: []string{}},
			{ID: "f2", Label: "Mobile", Type: domain.FieldTypeMobile, IsPrimary: true, Options: []string{}},
		},
	}
}

func eventAt(id, name string, offset time.Duration) domain.Event {
	d := validDraft()
	d.Name = name
	d.EventDate = fixedNow.Add(offset)
	return domain.Event{ID: id, EventDraft: d}
}
