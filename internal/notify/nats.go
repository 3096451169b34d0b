package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher is the slice of a NATS connection the notifier uses
type Publisher interface {
	Publish(subject string, payload []byte) error
}

// NATSNotifier publishes notifications on <subject>.<userID>
type NATSNotifier struct {
	pub     Publisher
	subject string
}

func NewNATSNotifier(pub Publisher, subject string) *NATSNotifier {
	if subject == "" {
		subject = "console.notifications"
	}
	return &NATSNotifier{pub: pub, subject: subject}
}

// Subject returns where a notification for userID is published
func (n *NATSNotifier) Subject(userID string) string {
	if userID == "" {
		userID = "anonymous"
	}
	return n.subject + "." + userID
}

func (n *NATSNotifier) Notify(ctx context.Context, note Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := n.pub.Publish(n.Subject(note.UserID), payload); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Connect dials NATS with reconnects enabled
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("qvent-console"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// Close drains and closes conn
func Close(conn *nats.Conn) {
	if conn == nil {
		return
	}
	_ = conn.Drain()
	conn.Close()
}
