// Package mailer defines the outbound email collaborator. Formatting and
// delivery are outside the credential lifecycle; the core only needs
// "send message to address".
package mailer

import (
	"context"

	"github.com/genesisio/genesisio/internal/logging"
)

// Sender delivers a message to a single address.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Noop discards every message. Used when no mail backend is configured.
type Noop struct{}

func (Noop) Send(ctx context.Context, to, subject, body string) error { return nil }

// Log writes message envelopes to the logger instead of delivering them.
// Useful in development; bodies are not logged.
type Log struct {
	Logger logging.Logger
}

func (l Log) Send(ctx context.Context, to, subject, body string) error {
	l.Logger.Info(ctx, "mail send", "to", to, "subject", subject)
	return nil
}
