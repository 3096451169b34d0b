package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"qvent-console/internal/domain"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func event(id, name string, offset time.Duration) domain.Event {
	return domain.Event{
		ID:         id,
		EventDraft: domain.EventDraft{Name: name, EventDate: now.Add(offset)},
	}
}

func eventIDs(events []domain.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func sampleEvents() []domain.Event {
	return []domain.Event{
		event("e1", "Tech Meetup Pune", 48*time.Hour),
		event("e2", "annual sports day", 24*time.Hour),
		event("e3", "Old Hackathon", -24*time.Hour),
		event("e4", "Music Night", 72*time.Hour),
	}
}

func TestFilterEvents_HidesExpired(t *testing.T) {
	got := FilterEvents(sampleEvents(), EventQuery{}, now)
	assert.Equal(t, []string{"e2", "e4", "e1"}, eventIDs(got))

	got = FilterEvents(sampleEvents(), EventQuery{ShowExpired: true}, now)
	assert.Len(t, got, 4)
}

func TestFilterEvents_Search(t *testing.T) {
	got := FilterEvents(sampleEvents(), EventQuery{Search: "MEETUP"}, now)
	assert.Equal(t, []string{"e1"}, eventIDs(got))

	got = FilterEvents(sampleEvents(), EventQuery{Search: "hack"}, now)
	assert.Empty(t, got)
}

func TestFilterEvents_Sort(t *testing.T) {
	tests := []struct {
		sortBy string
		want   []string
	}{
		{SortByName, []string{"e2", "e4", "e3", "e1"}},
		{SortByDate, []string{"e3", "e2", "e1", "e4"}},
		{SortByLatest, []string{"e4", "e1", "e2", "e3"}},
		{"bogus", []string{"e1", "e2", "e3", "e4"}},
	}

	for _, tt := range tests {
		t.Run(tt.sortBy, func(t *testing.T) {
			got := FilterEvents(sampleEvents(), EventQuery{SortBy: tt.sortBy, ShowExpired: true}, now)
			assert.Equal(t, tt.want, eventIDs(got))
		})
	}
}

func sampleUsers() []domain.User {
	return []domain.User{
		{ID: "u1", Name: "Zara Ali", Email: "zara@example.com", Mobile: "9000000003"},
		{ID: "u2", Name: "arjun mehta", Email: "ARJUN@Example.com", Mobile: "9000000001"},
		{ID: "u3", Name: "Meera Iyer", Email: "meera@example.com", Mobile: "9000000002"},
	}
}

func userIDs(users []domain.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

func TestFilterUsers_Search(t *testing.T) {
	assert.Equal(t, []string{"u2"}, userIDs(FilterUsers(sampleUsers(), UserQuery{Search: "arjun@"})))
	assert.Equal(t, []string{"u3"}, userIDs(FilterUsers(sampleUsers(), UserQuery{Search: "0002"})))
	assert.Equal(t, []string{"u1"}, userIDs(FilterUsers(sampleUsers(), UserQuery{Search: "ZARA"})))
	assert.Len(t, FilterUsers(sampleUsers(), UserQuery{}), 3)
}

func TestFilterUsers_Sort(t *testing.T) {
	assert.Equal(t, []string{"u2", "u3", "u1"}, userIDs(FilterUsers(sampleUsers(), UserQuery{SortBy: SortByName})))
	assert.Equal(t, []string{"u2", "u3", "u1"}, userIDs(FilterUsers(sampleUsers(), UserQuery{SortBy: SortByMobile})))
	assert.Equal(t, []string{"u2", "u3", "u1"}, userIDs(FilterUsers(sampleUsers(), UserQuery{SortBy: SortByEmail})))
}

func TestCountdown(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		want   string
	}{
		{"past", -time.Minute, "Expired"},
		{"now", 0, "Expired"},
		{"days", 50 * time.Hour, "2d left"},
		{"hours", 5*time.Hour + 30*time.Minute, "5h left"},
		{"minutes", 42*time.Minute + 10*time.Second, "42m left"},
		{"seconds", 30 * time.Second, "0m left"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Countdown(now.Add(tt.offset), now))
		})
	}
}

func TestShareLinks(t *testing.T) {
	link := ShareLink("https://event-landing-sigma.vercel.app/", "abc123")
	assert.Equal(t, "https://event-landing-sigma.vercel.app/event/abc123", link)

	assert.Equal(t,
		"https://wa.me/?text=Please+fill+the+form%3A+https%3A%2F%2Fevent-landing-sigma.vercel.app%2Fevent%2Fabc123",
		WhatsAppShareURL(link))
}
