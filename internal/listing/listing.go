// Package listing holds the search, sort and badge helpers used by the event
// list and the admin dashboard.
package listing

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"qvent-console/internal/domain"
)

// Event list sort keys
const (
	SortByName   = "name"
	SortByDate   = "date"
	SortByLatest = "latest"
)

// User list sort keys
const (
	SortByMobile = "mobile"
	SortByEmail  = "email"
)

// EventQuery is the event list toolbar state
type EventQuery struct {
	Search      string
	SortBy      string
	ShowExpired bool
}

// UserQuery is the admin user list toolbar state
type UserQuery struct {
	Search string
	SortBy string
}

// FilterEvents matches the search term against event names, hides expired
// events unless asked, then sorts. Unknown sort keys keep input order.
func FilterEvents(events []domain.Event, q EventQuery, now time.Time) []domain.Event {
	needle := strings.ToLower(q.Search)
	out := make([]domain.Event, 0, len(events))

	for _, e := range events {
		if e.IsExpired(now) && !q.ShowExpired {
			continue
		}
		if !strings.Contains(strings.ToLower(e.Name), needle) {
			continue
		}
		out = append(out, e)
	}

	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = SortByName
	}

	switch sortBy {
	case SortByName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case SortByDate:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].EventDate.Before(out[j].EventDate)
		})
	case SortByLatest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].EventDate.After(out[j].EventDate)
		})
	}

	return out
}

// FilterUsers matches name and email case-insensitively and mobile verbatim
func FilterUsers(users []domain.User, q UserQuery) []domain.User {
	needle := strings.ToLower(q.Search)
	out := make([]domain.User, 0, len(users))

	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Name), needle) ||
			strings.Contains(u.Mobile, q.Search) ||
			strings.Contains(strings.ToLower(u.Email), needle) {
			out = append(out, u)
		}
	}

	var key func(domain.User) string
	switch q.SortBy {
	case "", SortByName:
		key = func(u domain.User) string { return strings.ToLower(u.Name) }
	case SortByMobile:
		key = func(u domain.User) string { return u.Mobile }
	case SortByEmail:
		key = func(u domain.User) string { return strings.ToLower(u.Email) }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return key(out[i]) < key(out[j])
	})
	return out
}

// Countdown renders the time remaining until eventDate
func Countdown(eventDate, now time.Time) string {
	diff := eventDate.Sub(now)
	if diff <= 0 {
		return "Expired"
	}

	days := int(diff / (24 * time.Hour))
	hours := int(diff/time.Hour) % 24
	mins := int(diff/time.Minute) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd left", days)
	case hours > 0:
		return fmt.Sprintf("%dh left", hours)
	}
	return fmt.Sprintf("%dm left", mins)
}

// ShareLink is the public form URL for an event
func ShareLink(baseURL, eventID string) string {
	return strings.TrimRight(baseURL, "/") + "/event/" + url.PathEscape(eventID)
}

// WhatsAppShareURL builds a wa.me link that pre-fills a message with link
func WhatsAppShareURL(link string) string {
	return "https://wa.me/?text=" + url.QueryEscape("Please fill the form: "+link)
}
