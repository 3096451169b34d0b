package domain

import (
	"time"
)

// Category is the pricing category of an event
type Category string

const (
	CategoryFree Category = "free"
	CategoryPaid Category = "paid"
)

// OrDefault treats a missing category as free
func (c Category) OrDefault() Category {
	if c == "" {
		return CategoryFree
	}
	return c
}

// Valid reports whether c is free, paid or unset
func (c Category) Valid() bool {
	switch c {
	case "", CategoryFree, CategoryPaid:
		return true
	}
	return false
}

// LocationType says how the location string is interpreted
type LocationType string

const (
	LocationURL    LocationType = "url"
	LocationManual LocationType = "manual"
)

// Valid reports whether l is url, manual or unset
func (l LocationType) Valid() bool {
	switch l {
	case "", LocationURL, LocationManual:
		return true
	}
	return false
}

// EventStatus is the publish state toggled from the edit flow
type EventStatus string

const (
	StatusActive   EventStatus = "ACTIVE"
	StatusDisabled EventStatus = "DISABLED"
)

// EventDraft is the event being created or edited
type EventDraft struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	EventDate    time.Time     `json:"eventDate"`
	Location     string        `json:"location"`
	LocationType LocationType  `json:"locationType,omitempty"`
	ContactName  string        `json:"contactName"`
	ContactPhone string        `json:"contactPhone,omitempty"`
	ContactEmail string        `json:"contactEmail"`
	Category     Category      `json:"category,omitempty"`
	Amount       *float64      `json:"amount,omitempty"`
	Status       EventStatus   `json:"status,omitempty"`
	Fields       []FieldSchema `json:"fields"`
}

// Clone deep-copies the draft including its field collection
func (d EventDraft) Clone() EventDraft {
	out := d
	if d.Amount != nil {
		amount := *d.Amount
		out.Amount = &amount
	}
	if d.Fields != nil {
		out.Fields = make([]FieldSchema, len(d.Fields))
		for i, f := range d.Fields {
			out.Fields[i] = f.Clone()
		}
	}
	return out
}

// Event is a persisted event record
type Event struct {
	ID string `json:"id"`
	EventDraft
	OwnerID         string    `json:"ownerId,omitempty"`
	SubmissionCount int       `json:"submissionCount,omitempty"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt,omitempty"`
}

// Draft loads the record into the editable draft shape
func (e Event) Draft() EventDraft {
	return e.EventDraft.Clone()
}

// IsPaid is true for paid events or any event carrying a positive amount
func (e Event) IsPaid() bool {
	return e.Category == CategoryPaid || (e.Amount != nil && *e.Amount > 0)
}

// IsExpired reports whether the event date is before now
func (e Event) IsExpired(now time.Time) bool {
	return e.EventDate.Before(now)
}
