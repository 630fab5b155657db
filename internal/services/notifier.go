package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	pubnub "github.com/pubnub/go/v7"
)

type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyError   NotificationLevel = "error"
)

type Notification struct {
	UserID  string            `json:"user_id"`
	EventID string            `json:"event_id,omitempty"`
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
}

// Notifier is a fire-and-forget toast channel. Callers never wait on it and
// never see its failures.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	level := slog.LevelInfo
	if n.Level == NotifyError {
		level = slog.LevelWarn
	}
	l.logger.Log(ctx, level, "notification",
		"user_id", n.UserID,
		"event_id", n.EventID,
		"level", string(n.Level),
		"message", n.Message,
	)
}

// PubNubNotifier publishes to the per-user channel "user-<id>".
type PubNubNotifier struct {
	pn     *pubnub.PubNub
	logger *slog.Logger
}

func NewPubNubNotifier(pn *pubnub.PubNub, logger *slog.Logger) *PubNubNotifier {
	return &PubNubNotifier{pn: pn, logger: logger}
}

func (p *PubNubNotifier) Notify(ctx context.Context, n Notification) {
	if n.UserID == "" {
		return
	}
	go func() {
		_, _, err := p.pn.Publish().
			Channel("user-" + n.UserID).
			Message(map[string]any{
				"type":     "toast",
				"level":    string(n.Level),
				"message":  n.Message,
				"event_id": n.EventID,
			}).
			Execute()
		if err != nil {
			p.logger.Warn("failed to publish notification", "user_id", n.UserID, "error", err)
		}
	}()
}

// notifyError sends a failure toast. The message carries err's text.
func notifyError(ctx context.Context, n Notifier, userID, eventID uuid.UUID, msg string, err error) {
	n.Notify(ctx, Notification{
		UserID:  idString(userID),
		EventID: idString(eventID),
		Level:   NotifyError,
		Message: msg + ": " + err.Error(),
	})
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notification) {}
