package identity

import (
	"context"

	"github.com/dmitrijs2005/glasshabit/internal/logging"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers provider emails (verification, password reset).
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// LogMailer "delivers" mail by logging it; enough for a single-device setup
// where the user reads the code from the log.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log.With("component", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.log.Info(ctx, "mail sent", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
