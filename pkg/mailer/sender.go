package mailer

import "context"

// Sender is implemented by every delivery provider: transactional relays
// as well as connected mailboxes.
type Sender interface {
	// Send delivers a single email. Implementations must not retry;
	// callers decide on fallback.
	Send(ctx context.Context, email *Email) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, email *Email) error

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, email *Email) error {
	return f(ctx, email)
}
