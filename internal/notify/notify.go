// Package notify delivers success and error notices about console actions.
package notify

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/nats-io/nuid"

	"qvent-console/pkg/logger"
)

// Level is the severity shown to the organizer
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Actions
const (
	ActionEventCreated = "event.created"
	ActionEventUpdated = "event.updated"
	ActionEventDeleted = "event.deleted"
	ActionEventFailed  = "event.failed"
)

// Notification is one toast-worthy message
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	EventID   string    `json:"eventId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// New stamps a notification with an id and time
func New(level Level, action, message string) Notification {
	return Notification{
		ID:        nuid.Next(),
		Level:     level,
		Action:    action,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// Notifier delivers notifications
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the structured log
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.Named("notify")}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	log := l.logger.WithFields(map[string]interface{}{
		"notification_id": n.ID,
		"action":          n.Action,
		"event_id":        n.EventID,
		"user_id":         n.UserID,
	})
	if n.Level == LevelError {
		log.Warn(n.Message)
	} else {
		log.Info(n.Message)
	}
	return nil
}

// Multi fans a notification out to every notifier and joins their errors
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
