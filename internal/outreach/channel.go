package outreach

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/outreach/pkg/mailer"
)

const (
	ChannelMailbox = "mailbox"
	ChannelRelay   = "relay"
)

// Message is one rendered e-mail ready for delivery.
type Message struct {
	ProspectID uuid.UUID
	To         string
	Subject    string
	Body       string
	FromName   string
	FromEmail  string
}

// Outcome is the result of delivering one Message.
type Outcome struct {
	ProspectID uuid.UUID `json:"prospect_id"`
	To         string    `json:"to"`
	Channel    string    `json:"channel,omitempty"`
	Success    bool      `json:"success"`
	Reason     string    `json:"reason,omitempty"`
}

// Channel delivers a single message. Implementations never return errors
// or panic: every failure is reported through Outcome.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, msg Message) Outcome
}

// senderChannel adapts a mailer.Sender to Channel.
type senderChannel struct {
	name   string
	sender mailer.Sender
	body   *mailer.BodyRenderer
	tags   mailer.Tags
}

// NewSenderChannel wraps sender as a Channel named name. Plain-text bodies are
// sent alongside their sanitized HTML rendering.
func NewSenderChannel(name string, sender mailer.Sender, body *mailer.BodyRenderer) Channel {
	if body == nil {
		body = mailer.NewBodyRenderer()
	}
	return &senderChannel{
		name:   name,
		sender: sender,
		body:   body,
		tags:   mailer.SimpleTags("outreach"),
	}
}

func (c *senderChannel) Name() string { return c.name }

func (c *senderChannel) Deliver(ctx context.Context, msg Message) (out Outcome) {
	out = Outcome{ProspectID: msg.ProspectID, To: msg.To, Channel: c.name}
	defer func() {
		if r := recover(); r != nil {
			out.Success = false
			out.Reason = fmt.Sprintf("panic: %v", r)
		}
	}()

	html, err := c.body.Render(msg.Body)
	if err != nil {
		out.Reason = err.Error()
		return out
	}

	email := &mailer.Email{
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    html,
		Text:    msg.Body,
		Tags:    c.tags,
	}
	if msg.FromEmail != "" {
		email.From = mailer.Recipient(msg.FromName, msg.FromEmail)
	}

	ctx, cancel := attemptContext(ctx)
	defer cancel()

	if err := c.sender.Send(ctx, email); err != nil {
		out.Reason = err.Error()
		return out
	}
	out.Success = true
	return out
}

type attemptTimeoutKey struct{}

// withAttemptTimeout makes every sender attempt under ctx run with its own
// deadline of d instead of sharing one deadline across the fallback chain.
func withAttemptTimeout(ctx context.Context, d time.Duration) context.Context {
	if d <= 0 {
		return ctx
	}
	return context.WithValue(ctx, attemptTimeoutKey{}, d)
}

func attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d, ok := ctx.Value(attemptTimeoutKey{}).(time.Duration); ok {
		return context.WithTimeout(ctx, d)
	}
	return ctx, func() {}
}

// fallbackChannel retries a failed primary delivery on a secondary channel, once.
type fallbackChannel struct {
	primary  Channel
	fallback Channel
	onFail   func(ctx context.Context, primary Outcome)
}

// WithFallback returns a channel that delivers through primary and, when that
// fails, makes exactly one attempt through fallback.
func WithFallback(primary, fallback Channel, onFail func(ctx context.Context, primary Outcome)) Channel {
	return &fallbackChannel{primary: primary, fallback: fallback, onFail: onFail}
}

func (c *fallbackChannel) Name() string {
	return c.primary.Name() + "+" + c.fallback.Name()
}

func (c *fallbackChannel) Deliver(ctx context.Context, msg Message) Outcome {
	first := c.primary.Deliver(ctx, msg)
	if first.Success {
		return first
	}
	if c.onFail != nil {
		c.onFail(ctx, first)
	}

	second := c.fallback.Deliver(ctx, msg)
	if !second.Success {
		second.Reason = fmt.Sprintf("%s: %s; %s: %s", first.Channel, first.Reason, second.Channel, second.Reason)
	}
	return second
}
