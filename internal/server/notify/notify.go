// Package notify delivers best-effort user notifications. Callers submit
// messages to a Dispatcher, which hands them to a Notifier on its own
// goroutine so delivery never affects the outcome of the request that
// produced the message.
package notify

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// Message is a single outbound notification. HTML may be empty.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes the message envelope to the log. Bodies are not logged.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notify")}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.Info(ctx, "notification", "to", msg.To, "subject", msg.Subject, "has_html", msg.HTML != "")
	return nil
}
