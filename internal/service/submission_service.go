package service

import (
	"context"

	"qvent-console/internal/domain"
	"qvent-console/internal/session"
	"qvent-console/internal/submissions"
	"qvent-console/pkg/errors"
	"qvent-console/pkg/logger"
)

// SubmissionTable is one rendered page of an event's responses
type SubmissionTable struct {
	EventID   string              `json:"eventId"`
	EventName string              `json:"eventName,omitempty"`
	Headers   []string            `json:"headers"`
	Summary   submissions.Summary `json:"summary"`
	Search    string              `json:"search"`
	SortField string              `json:"sortField"`
	SortOrder submissions.Order   `json:"sortOrder"`
	submissions.Page
}

// SubmissionService serves the submissions table
type SubmissionService struct {
	gateway  EventGateway
	events   *EventService
	pageSize int
	logger   *logger.Logger
}

func NewSubmissionService(gateway EventGateway, events *EventService, pageSize int, log *logger.Logger) *SubmissionService {
	if pageSize <= 0 {
		pageSize = submissions.DefaultPageSize
	}
	return &SubmissionService{
		gateway:  gateway,
		events:   events,
		pageSize: pageSize,
		logger:   log.Named("submissions"),
	}
}

// PageSize is the configured rows per page
func (s *SubmissionService) PageSize() int {
	return s.pageSize
}

// Table fetches every submission once and runs the filter, sort and page
// pipeline over them. Summary stats always cover the unfiltered set.
func (s *SubmissionService) Table(ctx context.Context, sess *session.Session, eventID string, q submissions.Query) (*SubmissionTable, error) {
	rows, err := s.gateway.ListSubmissions(ctx, sess, eventID)
	if err != nil {
		return nil, err
	}

	if q.PageSize <= 0 {
		q.PageSize = s.pageSize
	}
	if q.SortField == "" {
		q.SortField = submissions.SortSubmittedAt
	}
	if q.SortOrder == "" {
		q.SortOrder = submissions.Desc
	}

	table := &SubmissionTable{
		EventID:   eventID,
		Summary:   submissions.Summarize(rows),
		Search:    q.Search,
		SortField: q.SortField,
		SortOrder: q.SortOrder,
		Page:      submissions.Run(rows, q),
	}

	// Admins can open tables for events outside their own list; fall back to
	// the columns found in the rows.
	var fields []domain.FieldSchema
	ev, err := s.events.Load(ctx, sess, eventID)
	switch {
	case err == nil:
		table.EventName = ev.Name
		fields = ev.Fields
	case errors.IsType(err, errors.ErrorTypeNotFound):
	default:
		s.logger.WithError(err).WithField("event_id", eventID).Debug("Could not load event for headers")
	}
	table.Headers = submissions.Headers(rows, fields)

	return table, nil
}
