package upstream

import (
	"strings"
	"time"

	"qvent-console/internal/domain"
)

// The API stores the event date as "expiryDate" and the form posts it in the
// browser's datetime-local format, so reads accept either key and any of
// these layouts.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

type wireEvent struct {
	domain.Event
	EventDate  string           `json:"eventDate"`
	ExpiryDate string           `json:"expiryDate"`
	CreatedAt  domain.Timestamp `json:"createdAt"`
	UpdatedAt  domain.Timestamp `json:"updatedAt"`
}

func (w wireEvent) toDomain() domain.Event {
	ev := w.Event
	date := w.EventDate
	if date == "" {
		date = w.ExpiryDate
	}
	ev.EventDraft.EventDate = parseDate(date)
	ev.CreatedAt = w.CreatedAt.Time
	ev.UpdatedAt = w.UpdatedAt.Time
	if ev.Fields == nil {
		ev.Fields = []domain.FieldSchema{}
	}
	return ev
}

// merge fills anything the response left out from the draft that was sent
func (w wireEvent) merge(draft domain.EventDraft) *domain.Event {
	ev := w.toDomain()
	if ev.Name == "" {
		ev.EventDraft = draft.Clone()
	}
	return &ev
}

func toEvents(wire []wireEvent) []domain.Event {
	events := make([]domain.Event, len(wire))
	for i, w := range wire {
		events[i] = w.toDomain()
	}
	return events
}

// wireDraft is what the API accepts on create and update
type wireDraft struct {
	domain.EventDraft
	ExpiryDate string `json:"expiryDate"`
}

func newWireDraft(d domain.EventDraft) wireDraft {
	return wireDraft{
		EventDraft: d,
		ExpiryDate: d.EventDate.UTC().Format(time.RFC3339),
	}
}

type wireUser struct {
	domain.User
	CreatedAt domain.Timestamp `json:"createdAt"`
}

func toUsers(wire []wireUser) []domain.User {
	users := make([]domain.User, len(wire))
	for i, w := range wire {
		users[i] = w.User
		users[i].CreatedAt = w.CreatedAt.Time
	}
	return users
}
