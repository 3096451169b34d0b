package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"qvent-console/internal/domain"
	"qvent-console/internal/eventform"
	"qvent-console/internal/formbuilder"
	"qvent-console/internal/session"
	"qvent-console/pkg/errors"
	"qvent-console/pkg/logger"
	"qvent-console/pkg/redis"
)

// Draft is an event form being edited, kept server side between requests
type Draft struct {
	ID        string            `json:"id"`
	OwnerID   string            `json:"ownerId"`
	EventID   string            `json:"eventId,omitempty"`
	Event     domain.EventDraft `json:"event"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Editing reports whether the draft edits an existing event
func (d *Draft) Editing() bool {
	return d.EventID != ""
}

// MetaPatch updates the non-field parts of a draft. Nil members are left alone.
type MetaPatch struct {
	Name         *string              `json:"name,omitempty"`
	Description  *string              `json:"description,omitempty"`
	EventDate    *time.Time           `json:"eventDate,omitempty"`
	Location     *string              `json:"location,omitempty"`
	LocationType *domain.LocationType `json:"locationType,omitempty"`
	ContactName  *string              `json:"contactName,omitempty"`
	ContactPhone *string              `json:"contactPhone,omitempty"`
	ContactEmail *string              `json:"contactEmail,omitempty"`
	Category     *domain.Category     `json:"category,omitempty"`
	Amount       *float64             `json:"amount,omitempty"`
	Status       *domain.EventStatus  `json:"status,omitempty"`
}

func (p MetaPatch) apply(d *domain.EventDraft) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.EventDate != nil {
		d.EventDate = p.EventDate.UTC()
	}
	if p.Location != nil {
		d.Location = *p.Location
	}
	if p.LocationType != nil {
		d.LocationType = *p.LocationType
	}
	if p.ContactName != nil {
		d.ContactName = *p.ContactName
	}
	if p.ContactPhone != nil {
		d.ContactPhone = *p.ContactPhone
	}
	if p.ContactEmail != nil {
		d.ContactEmail = *p.ContactEmail
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Amount != nil {
		amount := *p.Amount
		d.Amount = &amount
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
}

// DraftStore is the subset of the Redis client drafts need
type DraftStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...interface{}) error
	SRem(ctx context.Context, key string, members ...interface{}) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// DraftService owns the create and edit form state. Each draft belongs to
// the user who opened it; concurrent edits are last write wins.
type DraftService struct {
	store  DraftStore
	keys   *redis.KeyBuilder
	events *EventService
	ttl    time.Duration
	now    func() time.Time
	logger *logger.Logger
}

func NewDraftService(store DraftStore, keys *redis.KeyBuilder, events *EventService, ttl time.Duration, log *logger.Logger) *DraftService {
	if ttl <= 0 {
		ttl = redis.TTLDraft
	}
	return &DraftService{
		store:  store,
		keys:   keys,
		events: events,
		ttl:    ttl,
		now:    time.Now,
		logger: log.Named("drafts"),
	}
}

func blankDraft() domain.EventDraft {
	return domain.EventDraft{
		LocationType: domain.LocationManual,
		Category:     domain.CategoryFree,
		Fields:       []domain.FieldSchema{},
	}
}

// Create opens a draft. With fromEventID set the draft is loaded from that
// event and submitting it updates the event.
func (s *DraftService) Create(ctx context.Context, sess *session.Session, fromEventID string) (*Draft, error) {
	now := s.now().UTC()
	d := &Draft{
		ID:        uuid.NewString(),
		OwnerID:   sess.UserID(),
		Event:     blankDraft(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if fromEventID != "" {
		ev, err := s.events.Load(ctx, sess, fromEventID)
		if err != nil {
			return nil, err
		}
		d.EventID = ev.ID
		d.Event = ev.Draft()
		if d.Event.Fields == nil {
			d.Event.Fields = []domain.FieldSchema{}
		}
	}

	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	if err := s.store.SAdd(ctx, s.keys.KeyUserDrafts(d.OwnerID), d.ID); err != nil {
		s.logger.WithError(err).Warn("Failed to index draft")
	}

	s.logger.WithFields(map[string]interface{}{
		"draft_id": d.ID,
		"user_id":  d.OwnerID,
		"event_id": d.EventID,
	}).Debug("Draft created")
	return d, nil
}

// Get loads a draft owned by the caller. Drafts of other users look missing.
func (s *DraftService) Get(ctx context.Context, sess *session.Session, id string) (*Draft, error) {
	raw, err := s.store.Get(ctx, s.keys.KeyDraft(id))
	if stderrors.Is(err, redis.ErrNil) {
		return nil, errors.NewNotFoundError("Draft not found or expired")
	}
	if err != nil {
		return nil, errors.NewInternalError("Failed to load draft", err)
	}

	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, errors.NewInternalError("Failed to decode draft", err)
	}
	if d.OwnerID != sess.UserID() {
		return nil, errors.NewNotFoundError("Draft not found or expired")
	}
	return &d, nil
}

// List returns the caller's live drafts, pruning expired ones from the index
func (s *DraftService) List(ctx context.Context, sess *session.Session) ([]*Draft, error) {
	indexKey := s.keys.KeyUserDrafts(sess.UserID())
	ids, err := s.store.SMembers(ctx, indexKey)
	if err != nil {
		return nil, errors.NewInternalError("Failed to list drafts", err)
	}

	drafts := make([]*Draft, 0, len(ids))
	for _, id := range ids {
		d, err := s.Get(ctx, sess, id)
		if errors.IsType(err, errors.ErrorTypeNotFound) {
			_ = s.store.SRem(ctx, indexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

func (s *DraftService) save(ctx context.Context, d *Draft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return errors.NewInternalError("Failed to encode draft", err)
	}
	if err := s.store.Set(ctx, s.keys.KeyDraft(d.ID), payload, s.ttl); err != nil {
		return errors.NewInternalError("Failed to save draft", err)
	}
	return nil
}

// mutate loads, edits and saves a draft. Each save refreshes the TTL.
func (s *DraftService) mutate(ctx context.Context, sess *session.Session, id string, edit func(d *Draft) error) (*Draft, error) {
	d, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := edit(d); err != nil {
		return nil, err
	}
	d.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// editFields runs a collection edit and maps editor errors to bad requests
func (s *DraftService) editFields(ctx context.Context, sess *session.Session, id string, edit func(c formbuilder.Collection) (formbuilder.Collection, error)) (*Draft, error) {
	return s.mutate(ctx, sess, id, func(d *Draft) error {
		fields, err := edit(formbuilder.Collection(d.Event.Fields))
		if err != nil {
			return fieldError(err)
		}
		d.Event.Fields = []domain.FieldSchema(fields)
		return nil
	})
}

func fieldError(err error) error {
	switch {
	case stderrors.Is(err, formbuilder.ErrFieldIndexOutOfRange),
		stderrors.Is(err, formbuilder.ErrOptionIndexOutOfRange):
		return errors.NewNotFoundError(err.Error())
	default:
		return errors.NewBadRequestError(err.Error())
	}
}

// UpdateMeta applies patch to the event details
func (s *DraftService) UpdateMeta(ctx context.Context, sess *session.Session, id string, patch MetaPatch) (*Draft, error) {
	return s.mutate(ctx, sess, id, func(d *Draft) error {
		patch.apply(&d.Event)
		return nil
	})
}

func (s *DraftService) AddField(ctx context.Context, sess *session.Session, id string) (*Draft, error) {
	return s.editFields(ctx, sess, id, func(c formbuilder.Collection) (formbuilder.Collection, error) {
		return formbuilder.AddField(c), nil
	})
}

func (s *DraftService) RemoveField(ctx context.Context, sess *session.Session, id string, index int) (*Draft, error) {
	return s.editFields(ctx, sess, id, func(c formbuilder.Collection) (formbuilder.Collection, error) {
		return formbuilder.RemoveField(c, index)
	})
}

// UpdateField applies keyed edits in order. Nothing is saved if any fails.
func (s *DraftService) UpdateField(ctx context.Context, sess *session.Session, id string, index int, updates []formbuilder.FieldUpdate) (*Draft, error) {
	if len(updates) == 0 {
		return nil, errors.NewBadRequestError("No field updates given")
	}
	return s.editFields(ctx, sess, id, func(c formbuilder.Collection) (formbuilder.Collection, error) {
		var err error
		for _, u := range updates {
			if c, err = formbuilder.Apply(c, index, u); err != nil {
				return nil, err
			}
		}
		return c, nil
	})
}

func (s *DraftService) AddOption(ctx context.Context, sess *session.Session, id string, fieldIndex int) (*Draft, error) {
	return s.editFields(ctx, sess, id, func(c formbuilder.Collection) (formbuilder.Collection, error) {
		return formbuilder.AddOption(c, fieldIndex)
	})
}

func (s *DraftService) UpdateOption(ctx context.Context, sess *session.Session, id string, fieldIndex, optionIndex int, value string) (*Draft, error) {
	return s.editFields(ctx, sess, id, func(c formbuilder.Collection) (formbuilder.Collection, error) {
		return formbuilder.UpdateOption(c, fieldIndex, optionIndex, value)
	})
}

func (s *DraftService) RemoveOption(ctx context.Context, sess *session.Session, id string, fieldIndex, optionIndex int) (*Draft, error) {
	return s.editFields(ctx, sess, id, func(c formbuilder.Collection) (formbuilder.Collection, error) {
		return formbuilder.RemoveOption(c, fieldIndex, optionIndex)
	})
}

// Validate checks the draft without saving or sending anything
func (s *DraftService) Validate(ctx context.Context, sess *session.Session, id string) (eventform.ValidationResult, error) {
	d, err := s.Get(ctx, sess, id)
	if err != nil {
		return eventform.ValidationResult{}, err
	}
	return eventform.Validate(d.Event, s.now()), nil
}

// Submit saves the draft as an event. The draft is discarded only after the
// save succeeds, so a failed attempt can be retried as is.
func (s *DraftService) Submit(ctx context.Context, sess *session.Session, id string) (*SubmitResult, error) {
	d, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	result, err := s.events.Submit(ctx, sess, d.Event, d.EventID)
	if err != nil {
		return nil, err
	}

	if err := s.Discard(ctx, sess, id); err != nil {
		s.logger.WithError(err).WithField("draft_id", id).Warn("Failed to discard submitted draft")
	}
	return result, nil
}

// Discard deletes the draft
func (s *DraftService) Discard(ctx context.Context, sess *session.Session, id string) error {
	if _, err := s.Get(ctx, sess, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, s.keys.KeyDraft(id)); err != nil {
		return errors.NewInternalError("Failed to discard draft", err)
	}
	if err := s.store.SRem(ctx, s.keys.KeyUserDrafts(sess.UserID()), id); err != nil {
		return fmt.Errorf("unindex draft: %w", err)
	}
	return nil
}
