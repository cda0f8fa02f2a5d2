// Package mailer sends transactional email. Sends are fire-and-forget: the
// Notifier runs each send in its own goroutine and failures are logged,
// never returned to the caller.
package mailer

import (
	"context"
	"log/slog"
	"time"
)

// Email is one outbound message.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers email.
type Sender interface {
	Name() string
	Send(ctx context.Context, e *Email) error
}

// Notifier wraps a Sender with detached, panic-safe delivery.
type Notifier struct {
	sender  Sender
	logger  *slog.Logger
	timeout time.Duration
}

// NewNotifier creates a notifier. A nil sender disables delivery entirely.
func NewNotifier(sender Sender, logger *slog.Logger) *Notifier {
	return &Notifier{
		sender:  sender,
		logger:  logger.With(slog.String("component", "mailer")),
		timeout: 30 * time.Second,
	}
}

// Notify queues an email for delivery and returns immediately. The send runs
// on its own context so it survives the originating request.
func (n *Notifier) Notify(e *Email) {
	if n == nil || n.sender == nil {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				n.logger.Error("mail send panicked",
					slog.String("sender", n.sender.Name()),
					slog.Any("panic", r),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.sender.Send(ctx, e); err != nil {
			n.logger.Error("mail send failed",
				slog.String("sender", n.sender.Name()),
				slog.String("to", e.To),
				slog.String("subject", e.Subject),
				slog.String("error", err.Error()),
			)
			return
		}

		n.logger.Info("mail sent",
			slog.String("to", e.To),
			slog.String("subject", e.Subject),
		)
	}()
}
