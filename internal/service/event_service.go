package service

import (
	"context"
	stderrors "errors"
	"time"

	"qvent-console/internal/domain"
	"qvent-console/internal/eventform"
	"qvent-console/internal/listing"
	"qvent-console/internal/notify"
	"qvent-console/internal/session"
	"qvent-console/pkg/errors"
	"qvent-console/pkg/logger"
)

// EventView is an event as shown on a dashboard card
type EventView struct {
	domain.Event
	Countdown string `json:"countdown"`
	IsPaid    bool   `json:"isPaid"`
	IsExpired bool   `json:"isExpired"`
}

func newEventView(ev domain.Event, now time.Time) EventView {
	return EventView{
		Event:     ev,
		Countdown: listing.Countdown(ev.EventDate, now),
		IsPaid:    ev.IsPaid(),
		IsExpired: ev.IsExpired(now),
	}
}

func newEventViews(events []domain.Event, now time.Time) []EventView {
	views := make([]EventView, len(events))
	for i, ev := range events {
		views[i] = newEventView(ev, now)
	}
	return views
}

// SubmitResult is a saved event and the notice raised for it
type SubmitResult struct {
	Event        *domain.Event       `json:"event"`
	Created      bool                `json:"created"`
	Notification notify.Notification `json:"notification"`
}

// ShareLinks is the payload of the share modal
type ShareLinks struct {
	EventID     string `json:"eventId"`
	Link        string `json:"link"`
	WhatsAppURL string `json:"whatsappUrl"`
}

// EventService runs the event list, edit and submit flows
type EventService struct {
	gateway   EventGateway
	notifier  notify.Notifier
	shareBase string
	now       func() time.Time
	logger    *logger.Logger
}

func NewEventService(gateway EventGateway, notifier notify.Notifier, shareBase string, log *logger.Logger) *EventService {
	return &EventService{
		gateway:   gateway,
		notifier:  notifier,
		shareBase: shareBase,
		now:       time.Now,
		logger:    log.Named("events"),
	}
}

// List returns the caller's events filtered and sorted for the dashboard
func (s *EventService) List(ctx context.Context, sess *session.Session, q listing.EventQuery) ([]EventView, error) {
	events, err := s.gateway.ListEvents(ctx, sess)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return newEventViews(listing.FilterEvents(events, q, now), now), nil
}

// Load finds one of the caller's events for editing
func (s *EventService) Load(ctx context.Context, sess *session.Session, id string) (*domain.Event, error) {
	events, err := s.gateway.ListEvents(ctx, sess)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].ID == id {
			ev := events[i]
			return &ev, nil
		}
	}
	return nil, errors.NewNotFoundError("Event not found")
}

// Submit validates draft and creates it, or updates existingID when set.
// An invalid draft is rejected before any request leaves the process. On a
// failed save the error notification is sent and the caller keeps the draft.
func (s *EventService) Submit(ctx context.Context, sess *session.Session, draft domain.EventDraft, existingID string) (*SubmitResult, error) {
	result := eventform.Validate(draft, s.now())
	if !result.Valid {
		return nil, errors.NewValidationError("Please fix the highlighted fields", result.Details())
	}

	normalized := eventform.Normalize(draft)
	log := s.logger.WithFields(map[string]interface{}{
		"user_id":  sess.UserID(),
		"event_id": existingID,
	})

	var (
		ev      *domain.Event
		err     error
		created = existingID == ""
	)
	if created {
		ev, err = s.gateway.CreateEvent(ctx, sess, normalized)
	} else {
		ev, err = s.gateway.UpdateEvent(ctx, sess, existingID, normalized)
	}

	if err != nil {
		log.WithError(err).Warn("Failed to save event")
		note := s.notification(notify.LevelError, notify.ActionEventFailed, "Failed to save event", existingID, sess)
		s.send(ctx, note)
		return nil, asExternal(err, "Failed to save event")
	}

	action, message := notify.ActionEventUpdated, "Event updated successfully"
	if created {
		action, message = notify.ActionEventCreated, "Event created successfully"
	}
	note := s.notification(notify.LevelSuccess, action, message, ev.ID, sess)
	s.send(ctx, note)

	log.WithField("saved_id", ev.ID).Info(message)
	return &SubmitResult{Event: ev, Created: created, Notification: note}, nil
}

// Delete removes an event
func (s *EventService) Delete(ctx context.Context, sess *session.Session, id string) (notify.Notification, error) {
	if err := s.gateway.DeleteEvent(ctx, sess, id); err != nil {
		if !errors.IsType(err, errors.ErrorTypeNotFound) {
			s.send(ctx, s.notification(notify.LevelError, notify.ActionEventFailed, "Failed to delete event", id, sess))
		}
		return notify.Notification{}, err
	}

	note := s.notification(notify.LevelSuccess, notify.ActionEventDeleted, "Event deleted", id, sess)
	s.send(ctx, note)
	return note, nil
}

// Share builds the public form link for one of the caller's events
func (s *EventService) Share(ctx context.Context, sess *session.Session, id string) (*ShareLinks, error) {
	ev, err := s.Load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	link := listing.ShareLink(s.shareBase, ev.ID)
	return &ShareLinks{
		EventID:     ev.ID,
		Link:        link,
		WhatsAppURL: listing.WhatsAppShareURL(link),
	}, nil
}

func (s *EventService) notification(level notify.Level, action, message, eventID string, sess *session.Session) notify.Notification {
	n := notify.New(level, action, message)
	n.EventID = eventID
	n.UserID = sess.UserID()
	return n
}

// send never fails the flow; delivery problems are only logged
func (s *EventService) send(ctx context.Context, n notify.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.WithError(err).WithField("notification_id", n.ID).Warn("Failed to deliver notification")
	}
}

// asExternal keeps typed gateway errors and wraps anything else
func asExternal(err error, message string) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return errors.NewExternalError(message, err)
}
