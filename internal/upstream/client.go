// Package upstream talks to the event platform REST API on behalf of a
// signed-in organizer.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"qvent-console/internal/domain"
	"qvent-console/internal/session"
	"qvent-console/pkg/errors"
	"qvent-console/pkg/logger"
)

// Client implements service.EventGateway over HTTP. It makes exactly one
// request per call and never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string, timeout time.Duration, logger *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("upstream"),
	}
}

// authedClient attaches the session's bearer token to every request
func (c *Client) authedClient(ctx context.Context, sess *session.Session) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: sess.Token, TokenType: "Bearer"})
	client := oauth2.NewClient(ctx, src)
	client.Timeout = c.httpClient.Timeout
	return client
}

func (c *Client) do(ctx context.Context, sess *session.Session, method, path string, in, out interface{}) error {
	if sess == nil || sess.Token == "" {
		return errors.NewAuthenticationError("Not signed in")
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.NewInternalError("Failed to encode request", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.NewInternalError("Failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.logger.WithFields(map[string]interface{}{
		"method":  method,
		"path":    path,
		"user_id": sess.UserID(),
	})

	start := time.Now()
	resp, err := c.authedClient(ctx, sess).Do(req)
	if err != nil {
		log.WithError(err).Warn("Upstream request failed")
		return errors.NewExternalError("Event service unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewExternalError("Failed to read event service response", err)
	}

	log = log.WithFields(map[string]interface{}{
		"status_code": resp.StatusCode,
		"duration":    time.Since(start).String(),
	})

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		log.Info("Upstream rejected credentials")
		return errors.NewAuthenticationError("Session expired, please sign in again")
	case resp.StatusCode == http.StatusForbidden:
		log.Info("Upstream denied access")
		return errors.NewAuthorizationError(upstreamMessage(raw, "Access denied"))
	case resp.StatusCode == http.StatusNotFound:
		return errors.NewNotFoundError(upstreamMessage(raw, "Not found"))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		log.WithField("response_body", truncate(string(raw), 256)).Warn("Upstream returned error")
		return errors.NewExternalError(upstreamMessage(raw, fmt.Sprintf("Event service returned status %d", resp.StatusCode)), nil)
	}

	log.Debug("Upstream request completed")

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.WithError(err).Error("Failed to parse upstream response")
		return errors.NewExternalError("Unexpected response from event service", err)
	}
	return nil
}

// upstreamMessage pulls {"error": "..."} or {"message": "..."} out of an error body
func upstreamMessage(raw []byte, fallback string) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return fallback
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ListEvents returns the caller's events
func (c *Client) ListEvents(ctx context.Context, sess *session.Session) ([]domain.Event, error) {
	var wire []wireEvent
	if err := c.do(ctx, sess, http.MethodGet, "/events", nil, &wire); err != nil {
		return nil, err
	}
	return toEvents(wire), nil
}

// CreateEvent posts a new event. When the API answers without a body the
// returned event carries only the draft.
func (c *Client) CreateEvent(ctx context.Context, sess *session.Session, draft domain.EventDraft) (*domain.Event, error) {
	var wire wireEvent
	if err := c.do(ctx, sess, http.MethodPost, "/events", newWireDraft(draft), &wire); err != nil {
		return nil, err
	}
	return wire.merge(draft), nil
}

// UpdateEvent replaces event id with draft
func (c *Client) UpdateEvent(ctx context.Context, sess *session.Session, id string, draft domain.EventDraft) (*domain.Event, error) {
	var wire wireEvent
	if err := c.do(ctx, sess, http.MethodPut, "/events/"+url.PathEscape(id), newWireDraft(draft), &wire); err != nil {
		return nil, err
	}
	ev := wire.merge(draft)
	if ev.ID == "" {
		ev.ID = id
	}
	return ev, nil
}

// DeleteEvent removes event id
func (c *Client) DeleteEvent(ctx context.Context, sess *session.Session, id string) error {
	return c.do(ctx, sess, http.MethodDelete, "/events/"+url.PathEscape(id), nil, nil)
}

// ListSubmissions returns every submission for an event
func (c *Client) ListSubmissions(ctx context.Context, sess *session.Session, eventID string) ([]domain.SubmissionRow, error) {
	var rows []domain.SubmissionRow
	if err := c.do(ctx, sess, http.MethodGet, "/events/"+url.PathEscape(eventID)+"/submissions", nil, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.SubmissionRow{}
	}
	return rows, nil
}

// ListUsers returns every organizer account
func (c *Client) ListUsers(ctx context.Context, sess *session.Session) ([]domain.User, error) {
	var wire []wireUser
	if err := c.do(ctx, sess, http.MethodGet, "/admin/users", nil, &wire); err != nil {
		return nil, err
	}
	return toUsers(wire), nil
}

// ListUserEvents returns the events owned by userID
func (c *Client) ListUserEvents(ctx context.Context, sess *session.Session, userID string) ([]domain.Event, error) {
	var wire []wireEvent
	if err := c.do(ctx, sess, http.MethodGet, "/admin/users/"+url.PathEscape(userID)+"/events", nil, &wire); err != nil {
		return nil, err
	}
	events := toEvents(wire)
	for i := range events {
		if events[i].OwnerID == "" {
			events[i].OwnerID = userID
		}
	}
	return events, nil
}
