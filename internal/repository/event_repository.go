package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"qvent-console/internal/domain"
	"qvent-console/internal/session"
	"qvent-console/pkg/database"
	"qvent-console/pkg/errors"
)

// EventRepository stores events and their submissions in Postgres. Every
// event operation is scoped to the owner; admins read other organizers'
// events only through ListUserEvents.
type EventRepository struct {
	db *database.PostgresDB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.PostgresDB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `
	e.id, e.owner_id, e.name, e.description, e.event_date, e.location, e.location_type,
	e.contact_name, e.contact_phone, e.contact_email, e.category, e.amount, e.status,
	e.fields, e.created_at, e.updated_at,
	(SELECT COUNT(*) FROM submissions s WHERE s.event_id = e.id) AS submission_count
`

// ownedBy restricts an events row to its owner, passed as the second argument
const ownedBy = `owner_id = $2`

var (
	listEventsQuery = `SELECT ` + eventColumns + `
		FROM events e
		WHERE e.owner_id = $1
		ORDER BY e.created_at DESC`

	updateEventQuery = `
		UPDATE events SET
			name = $3, description = $4, event_date = $5, location = $6, location_type = $7,
			contact_name = $8, contact_phone = $9, contact_email = $10, category = $11,
			amount = $12, status = $13, fields = $14::jsonb, updated_at = NOW()
		WHERE id = $1 AND ` + ownedBy

	deleteEventQuery = `DELETE FROM events WHERE id = $1 AND ` + ownedBy

	eventVisibleQuery = `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1 AND ` + ownedBy + `)`
)

func scanEvent(row rowScanner) (domain.Event, error) {
	var (
		ev           domain.Event
		locationType string
		category     string
		status       string
		fields       []byte
		count        int64
	)

	err := row.Scan(
		&ev.ID,
		&ev.OwnerID,
		&ev.Name,
		&ev.Description,
		&ev.EventDate,
		&ev.Location,
		&locationType,
		&ev.ContactName,
		&ev.ContactPhone,
		&ev.ContactEmail,
		&category,
		&ev.Amount,
		&status,
		&fields,
		&ev.CreatedAt,
		&ev.UpdatedAt,
		&count,
	)
	if err != nil {
		return ev, err
	}

	ev.LocationType = domain.LocationType(locationType)
	ev.Category = domain.Category(category)
	ev.Status = domain.EventStatus(status)
	ev.SubmissionCount = int(count)
	ev.Fields = []domain.FieldSchema{}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &ev.Fields); err != nil {
			return ev, fmt.Errorf("failed to decode fields for event %s: %w", ev.ID, err)
		}
	}

	return ev, nil
}

func (r *EventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ListEvents returns the session user's events, newest first
func (r *EventRepository) ListEvents(ctx context.Context, sess *session.Session) ([]domain.Event, error) {
	return r.queryEvents(ctx, listEventsQuery, sess.UserID())
}

// ensureUser records the organizer the first time they write anything
func (r *EventRepository) ensureUser(ctx context.Context, tx pgx.Tx, p domain.UserProfile) error {
	query := `
		INSERT INTO users (id, name, email, mobile, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
			email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
			mobile = COALESCE(NULLIF(EXCLUDED.mobile, ''), users.mobile),
			is_admin = EXCLUDED.is_admin
	`
	if _, err := tx.Exec(ctx, query, p.Sub, p.Name, p.Email, p.Mobile, p.IsAdmin); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func encodeFields(fields []domain.FieldSchema) (string, error) {
	if fields == nil {
		fields = []domain.FieldSchema{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode fields: %w", err)
	}
	return string(b), nil
}

func statusOrActive(s domain.EventStatus) string {
	if s == "" {
		return string(domain.StatusActive)
	}
	return string(s)
}

// CreateEvent inserts draft owned by the session user
func (r *EventRepository) CreateEvent(ctx context.Context, sess *session.Session, draft domain.EventDraft) (*domain.Event, error) {
	fields, err := encodeFields(draft.Fields)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.ensureUser(ctx, tx, sess.Profile); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	insert := `
		INSERT INTO events (
			id, owner_id, name, description, event_date, location, location_type,
			contact_name, contact_phone, contact_email, category, amount, status, fields
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::jsonb)
	`
	_, err = tx.Exec(ctx, insert,
		id,
		sess.UserID(),
		draft.Name,
		draft.Description,
		draft.EventDate,
		draft.Location,
		string(draft.LocationType),
		draft.ContactName,
		draft.ContactPhone,
		draft.ContactEmail,
		string(draft.Category.OrDefault()),
		draft.Amount,
		statusOrActive(draft.Status),
		fields,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	ev, err := scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to reload event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit event: %w", err)
	}
	return &ev, nil
}

// UpdateEvent replaces the editable columns of event id
func (r *EventRepository) UpdateEvent(ctx context.Context, sess *session.Session, id string, draft domain.EventDraft) (*domain.Event, error) {
	fields, err := encodeFields(draft.Fields)
	if err != nil {
		return nil, err
	}

	tag, err := r.db.Pool.Exec(ctx, updateEventQuery,
		id,
		sess.UserID(),
		draft.Name,
		draft.Description,
		draft.EventDate,
		draft.Location,
		string(draft.LocationType),
		draft.ContactName,
		draft.ContactPhone,
		draft.ContactEmail,
		string(draft.Category.OrDefault()),
		draft.Amount,
		statusOrActive(draft.Status),
		fields,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, errors.NewNotFoundError("Event not found")
	}

	ev, err := scanEvent(r.db.Pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to reload event: %w", err)
	}
	return &ev, nil
}

// DeleteEvent removes event id and, by cascade, its submissions
func (r *EventRepository) DeleteEvent(ctx context.Context, sess *session.Session, id string) error {
	tag, err := r.db.Pool.Exec(ctx, deleteEventQuery, id, sess.UserID())
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFoundError("Event not found")
	}
	return nil
}

func scanSubmission(row rowScanner) (domain.SubmissionRow, error) {
	var (
		sub         domain.SubmissionRow
		data        []byte
		submittedAt time.Time
	)
	if err := row.Scan(&sub.ID, &data, &sub.PrimaryValue, &submittedAt); err != nil {
		return sub, err
	}
	sub.SubmittedAt = domain.NewTimestamp(submittedAt)
	sub.Data = map[string]interface{}{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &sub.Data); err != nil {
			return sub, fmt.Errorf("failed to decode submission %s: %w", sub.ID, err)
		}
	}
	return sub, nil
}

// ListSubmissions returns every submission of an event the caller owns
func (r *EventRepository) ListSubmissions(ctx context.Context, sess *session.Session, eventID string) ([]domain.SubmissionRow, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, eventVisibleQuery, eventID, sess.UserID()).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check event: %w", err)
	}
	if !exists {
		return nil, errors.NewNotFoundError("Event not found")
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, data, primary_value, submitted_at
		FROM submissions
		WHERE event_id = $1
		ORDER BY submitted_at DESC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	subs := []domain.SubmissionRow{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func requireAdmin(sess *session.Session) error {
	if sess == nil || !sess.IsAdmin {
		return errors.NewAuthorizationError("Admin access required")
	}
	return nil
}

// ListUsers returns every organizer, admin only
func (r *EventRepository) ListUsers(ctx context.Context, sess *session.Session) ([]domain.User, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, email, mobile, is_admin, created_at
		FROM users
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Mobile, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListUserEvents returns the events owned by userID, admin only
func (r *EventRepository) ListUserEvents(ctx context.Context, sess *session.Session, userID string) ([]domain.Event, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, errors.NewNotFoundError("User not found")
	}

	query := `SELECT ` + eventColumns + `
		FROM events e
		WHERE e.owner_id = $1
		ORDER BY e.event_date DESC`

	return r.queryEvents(ctx, query, userID)
}
