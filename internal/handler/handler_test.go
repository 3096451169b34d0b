package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qvent-console/internal/domain"
	"qvent-console/internal/middleware"
	"qvent-console/internal/notify"
	"qvent-console/internal/service"
	"qvent-console/internal/session"
	"qvent-console/pkg/errors"
	"qvent-console/pkg/logger"
	"qvent-console/pkg/redis"
	"qvent-console/pkg/worker"
)

const (
	userToken  = "user-token"
	adminToken = "admin-token"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(ctx context.Context, token string) (*domain.AuthClaims, error) {
	exp := time.Now().Add(time.Hour)
	switch token {
	case userToken:
		return &domain.AuthClaims{Profile: domain.UserProfile{Sub: "u1", Name: "Organizer"}, ExpiresAt: exp}, nil
	case adminToken:
		return &domain.AuthClaims{Profile: domain.UserProfile{Sub: "a1", Name: "Admin", IsAdmin: true}, ExpiresAt: exp}, nil
	}
	return nil, errors.NewAuthenticationError("Invalid or expired token")
}

type stubGateway struct {
	mu          sync.Mutex
	events      []domain.Event
	submissions map[string][]domain.SubmissionRow
	users       []domain.User
	saveErr     error
	creates     int
}

func (g *stubGateway) ListEvents(ctx context.Context, sess *session.Session) ([]domain.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.Event, len(g.events))
	copy(out, g.events)
	return out, nil
}

func (g *stubGateway) CreateEvent(ctx context.Context, sess *session.Session, draft domain.EventDraft) (*domain.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.saveErr != nil {
		return nil, g.saveErr
	}
	g.creates++
	ev := domain.Event{ID: fmt.Sprintf("new-%d", g.creates), EventDraft: draft, OwnerID: sess.UserID()}
	g.events = append(g.events, ev)
	return &ev, nil
}

func (g *stubGateway) UpdateEvent(ctx context.Context, sess *session.Session, id string, draft domain.EventDraft) (*domain.Event, error) {
	if g.saveErr != nil {
		return nil, g.saveErr
	}
	return &domain.Event{ID: id, EventDraft: draft}, nil
}

func (g *stubGateway) DeleteEvent(ctx context.Context, sess *session.Session, id string) error {
	for _, ev := range g.events {
		if ev.ID == id {
			return nil
		}
	}
	return errors.NewNotFoundError("Event not found")
}

func (g *stubGateway) ListSubmissions(ctx context.Context, sess *session.Session, eventID string) ([]domain.SubmissionRow, error) {
	return g.submissions[eventID], nil
}

func (g *stubGateway) ListUsers(ctx context.Context, sess *session.Session) ([]domain.User, error) {
	return g.users, nil
}

func (g *stubGateway) ListUserEvents(ctx context.Context, sess *session.Session, userID string) ([]domain.Event, error) {
	var out []domain.Event
	for _, ev := range g.events {
		if ev.OwnerID == userID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func validEventDraft() domain.EventDraft {
	return domain.EventDraft{
		Name:         "Community Running Meetup",
		EventDate:    time.Now().Add(60 * time.Hour).UTC(),
		Location:     "City Park",
		ContactName:  "Jordan",
		ContactEmail: "jordan@example.com",
		Fields: []domain.FieldSchema{
			{ID: "f1", Label: "Full Name", Type: domain.FieldTypeText, Options: []string{}},
			{ID: "f2", Label: "Mobile", Type: domain.FieldTypeMobile, IsPrimary: true, Options: []string{}},
		},
	}
}

type testServer struct {
	router  http.Handler
	gateway *stubGateway
	redis   *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.NewNop()

	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://"+mr.Addr(), "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	pool, err := worker.NewPool("handler-test", 2, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Release(time.Second) })

	gw := &stubGateway{
		events: []domain.Event{
			{ID: "e1", EventDraft: validEventDraft(), OwnerID: "u1"},
		},
		submissions: map[string][]domain.SubmissionRow{},
		users: []domain.User{
			{ID: "u1", Name: "Organizer", Email: "org@example.com", Mobile: "9876543210"},
		},
	}
	for i := 1; i <= 12; i++ {
		gw.submissions["e1"] = append(gw.submissions["e1"], domain.SubmissionRow{
			ID:          fmt.Sprintf("s%02d", i),
			Data:        map[string]interface{}{"Full Name": fmt.Sprintf("Runner %d", i), "Mobile": "98000000" + fmt.Sprintf("%02d", i)},
			SubmittedAt: domain.NewTimestamp(time.Date(2026, 1, i, 9, 0, 0, 0, time.UTC)),
		})
	}

	sessions := session.NewManager(client, client.KeyBuilder, stubValidator{}, time.Hour, log)
	events := service.NewEventService(gw, notify.NewLogNotifier(log), "https://forms.example.com", log)
	subs := service.NewSubmissionService(gw, events, 5, log)
	drafts := service.NewDraftService(client, client.KeyBuilder, events, time.Hour, log)
	admin := service.NewAdminService(gw, pool, log)

	router := NewRouter(Handlers{
		Health:  NewHealthHandler(map[string]HealthCheck{"redis": client.Health}, "test", log),
		Session: NewSessionHandler(sessions, log),
		Events:  NewEventHandler(events, subs, log),
		Drafts:  NewDraftHandler(drafts, log),
		Admin:   NewAdminHandler(admin, log),
	}, sessions, middleware.DefaultCORSConfig(), log)

	return &testServer{router: router, gateway: gw, redis: mr}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, token string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/session/login", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["redis"])

	s.redis.SetError("ERR server unavailable")
	rec = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/session/me", userToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/session/login", "bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/session/login", "", map[string]string{"token": userToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var login SessionResponse
	decode(t, rec, &login)
	assert.Equal(t, "u1", login.Session.Profile.Sub)
	assert.NotContains(t, rec.Body.String(), userToken)

	rec = s.do(t, http.MethodGet, "/api/session/me", userToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/session/logout", userToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/session/me", userToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEvents_ListAndShare(t *testing.T) {
	s := newTestServer(t)
	s.login(t, userToken)

	rec := s.do(t, http.MethodGet, "/api/events?search=running", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Events []service.EventView `json:"events"`
		Count  int                 `json:"count"`
	}
	decode(t, rec, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "e1", list.Events[0].ID)
	assert.Equal(t, "2d left", list.Events[0].Countdown)

	rec = s.do(t, http.MethodGet, "/api/events/e1/share", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var links service.ShareLinks
	decode(t, rec, &links)
	assert.Equal(t, "https://forms.example.com/event/e1", links.Link)
	assert.Contains(t, links.WhatsAppURL, "https://wa.me/?text=")

	rec = s.do(t, http.MethodGet, "/api/events/missing", userToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvents_CreateValidation(t *testing.T) {
	s := newTestServer(t)
	s.login(t, userToken)

	bad := validEventDraft()
	bad.Name = "Short"
	bad.Fields = nil

	rec := s.do(t, http.MethodPost, "/api/events", userToken, bad)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body ValidationResponse
	decode(t, rec, &body)
	assert.False(t, body.Valid)
	assert.Equal(t, "Min 10 characters required", body.Errors["name"])
	assert.Equal(t, "Add at least one field", body.Errors["fields"])
	assert.Equal(t, 0, s.gateway.creates)

	rec = s.do(t, http.MethodPost, "/api/events", userToken, validEventDraft())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created service.SubmitResult
	decode(t, rec, &created)
	assert.True(t, created.Created)
	assert.Equal(t, notify.LevelSuccess, created.Notification.Level)
}

func TestEvents_CreateRejectsUnknownEnums(t *testing.T) {
	s := newTestServer(t)
	s.login(t, userToken)

	d := validEventDraft()
	d.Category = "Paid"
	d.LocationType = "carrier-pigeon"
	d.Fields[0].Type = "email"

	rec := s.do(t, http.MethodPost, "/api/events", userToken, d)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body ValidationResponse
	decode(t, rec, &body)
	assert.Equal(t, "Invalid category", body.Errors["category"])
	assert.Equal(t, "Invalid location type", body.Errors["locationType"])
	assert.Equal(t, "Invalid field type", body.Errors["fields"])
	assert.Equal(t, 0, s.gateway.creates)
}

func TestEvents_CreateUpstreamFailure(t *testing.T) {
	s := newTestServer(t)
	s.login(t, userToken)
	s.gateway.saveErr = errors.NewExternalError("Event service returned 500", nil)

	rec := s.do(t, http.MethodPost, "/api/events", userToken, validEventDraft())
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body errors.ErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, errors.ErrorTypeExternal, body.Error.Type)
	assert.NotEmpty(t, body.Error.RequestID)
}

func TestEvents_Submissions(t *testing.T) {
	s := newTestServer(t)
	s.login(t, userToken)

	rec := s.do(t, http.MethodGet, "/api/events/e1/submissions?page=3", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var table struct {
		Headers    []string `json:"headers"`
		Page       int      `json:"page"`
		TotalPages int      `json:"totalPages"`
		Rows       []struct {
			ID string `json:"id"`
		} `json:"rows"`
		Summary struct {
			TotalResponses int `json:"totalResponses"`
		} `json:"summary"`
	}
	decode(t, rec, &table)
	assert.Equal(t, []string{"Full Name", "Mobile"}, table.Headers)
	assert.Equal(t, 3, table.Page)
	assert.Equal(t, 3, table.TotalPages)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "s02", table.Rows[0].ID)
	assert.Equal(t, 12, table.Summary.TotalResponses)

	rec = s.do(t, http.MethodGet, "/api/events/e1/submissions?search=runner%201&order=asc", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &table)
	require.Len(t, table.Rows, 4)
	assert.Equal(t, "s01", table.Rows[0].ID)
}

func TestDrafts_Flow(t *testing.T) {
	s := newTestServer(t)
	s.login(t, userToken)

	rec := s.do(t, http.MethodPost, "/api/drafts", userToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var d service.Draft
	decode(t, rec, &d)
	base := "/api/drafts/" + d.ID

	rec = s.do(t, http.MethodPatch, base, userToken, map[string]interface{}{
		"name":         "Annual Sports Day",
		"eventDate":    time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"location":     "Main Ground",
		"contactName":  "Jordan",
		"contactEmail": "jordan@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, base+"/validate", userToken, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var invalid ValidationResponse
	decode(t, rec, &invalid)
	assert.Equal(t, map[string]interface{}{"fields": "Add at least one field"}, invalid.Errors)

	rec = s.do(t, http.MethodPost, base+"/fields", userToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPatch, base+"/fields/0", userToken, []map[string]interface{}{
		{"key": "label", "value": "Size"},
		{"key": "type", "value": "dropdown"},
		{"key": "isPrimary", "value": true},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, base+"/fields/0/options", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPut, base+"/fields/0/options/0", userToken, map[string]string{"value": "Large"})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &d)
	assert.Equal(t, []string{"Large"}, d.Event.Fields[0].Options)

	rec = s.do(t, http.MethodDelete, base+"/fields/0/options/5", userToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodPatch, base+"/fields/x", userToken, map[string]interface{}{"key": "label", "value": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPatch, base+"/fields/0", userToken, map[string]interface{}{"key": "colour", "value": "red"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/validate", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/drafts", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Drafts []service.Draft `json:"drafts"`
	}
	decode(t, rec, &list)
	assert.Len(t, list.Drafts, 1)

	rec = s.do(t, http.MethodPost, base+"/submit", userToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, s.gateway.creates)

	rec = s.do(t, http.MethodGet, base, userToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDrafts_OtherUserCannotSee(t *testing.T) {
	s := newTestServer(t)
	s.login(t, userToken)
	s.login(t, adminToken)

	rec := s.do(t, http.MethodPost, "/api/drafts", userToken, map[string]string{"fromEventId": "e1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var d service.Draft
	decode(t, rec, &d)
	assert.Equal(t, "e1", d.EventID)

	rec = s.do(t, http.MethodGet, "/api/drafts/"+d.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/drafts/"+d.ID, userToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdmin(t *testing.T) {
	s := newTestServer(t)
	s.login(t, userToken)
	s.login(t, adminToken)

	rec := s.do(t, http.MethodGet, "/api/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/users?search=org", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users struct {
		Count int `json:"count"`
	}
	decode(t, rec, &users)
	assert.Equal(t, 1, users.Count)

	rec = s.do(t, http.MethodGet, "/api/admin/users/u1/events", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/overview", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var overview service.Overview
	decode(t, rec, &overview)
	assert.Equal(t, 1, overview.TotalUsers)
	assert.Equal(t, 1, overview.TotalEvents)
	assert.False(t, overview.Partial)
}

func TestNotFoundRoute(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
