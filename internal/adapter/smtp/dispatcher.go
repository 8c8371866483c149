// Package smtp implements the EmailDispatcher collaborator over plain
// SMTP with STARTTLS. It owns its own retry policy; the core never
// retries mail dispatch.
package smtp

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/Aladore384/guildpulse/internal/platform/retry"
)

// Dispatcher sends mail through a single SMTP account.
type Dispatcher struct {
	addr          string
	auth          smtp.Auth
	senderName    string
	senderAddress string
	policy        retry.Policy
}

// NewDispatcher creates an SMTP dispatcher. host and port address the
// relay; username/password authenticate against it.
func NewDispatcher(host, port, username, password, senderName, senderAddress string) *Dispatcher {
	return &Dispatcher{
		addr:          host + ":" + port,
		auth:          smtp.PlainAuth("", username, password, host),
		senderName:    senderName,
		senderAddress: senderAddress,
		policy: retry.Policy{
			MaxAttempts:    3,
			InitialBackoff: 2 * time.Second,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Warn("SMTP send retry", "attempt", attempt, "backoff", backoff, "error", err)
			},
		},
	}
}

// Send delivers one message. Transient relay failures are retried with
// backoff; context cancellation aborts the retry loop.
func (d *Dispatcher) Send(ctx context.Context, to, subject, body string) error {
	msg := d.compose(to, subject, body)

	classify := func(error) retry.Action { return retry.Retry }
	err := retry.DoVoid(ctx, d.policy, classify, func() error {
		return smtp.SendMail(d.addr, d.auth, d.senderAddress, []string{to}, msg)
	})
	if err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

func (d *Dispatcher) compose(to, subject, body string) []byte {
	headers := fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n",
		d.senderName, d.senderAddress, to, subject,
	)
	return []byte(headers + body)
}
