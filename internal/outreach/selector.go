package outreach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/outreach/pkg/mailer"
	"github.com/dmitrymomot/outreach/pkg/mailer/gmail"
	"github.com/dmitrymomot/outreach/pkg/mailer/outlook"
	"github.com/dmitrymomot/outreach/pkg/oauth"
)

// MailboxCredentials are the stored tokens of a user's connected mailbox.
type MailboxCredentials struct {
	Provider     string
	Email        string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Usable reports whether both tokens are on file.
func (c *MailboxCredentials) Usable() bool {
	return c != nil && c.AccessToken != "" && c.RefreshToken != ""
}

// CredentialStore looks up a user's connected mailbox. It returns nil and no
// error when the user has none.
type CredentialStore interface {
	MailboxCredentials(ctx context.Context, userID string) (*MailboxCredentials, error)
}

// MailboxFactory builds a sender that delivers through a connected mailbox.
type MailboxFactory interface {
	Mailbox(ctx context.Context, creds MailboxCredentials) (mailer.Sender, error)
}

// OAuthMailboxes builds Gmail and Outlook senders from oauth providers.
// A nil provider disables that platform.
type OAuthMailboxes struct {
	Google      *oauth.Provider
	Microsoft   *oauth.Provider
	GmailOpts   []gmail.Option
	OutlookOpts []outlook.Option
}

// Mailbox implements MailboxFactory.
func (f OAuthMailboxes) Mailbox(ctx context.Context, creds MailboxCredentials) (mailer.Sender, error) {
	tokens := oauth.Credentials{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.Expiry,
	}

	switch strings.ToLower(creds.Provider) {
	case oauth.GoogleProviderName:
		if f.Google == nil {
			return nil, fmt.Errorf("outreach: google mailboxes are not configured")
		}
		client, err := f.Google.Client(ctx, tokens)
		if err != nil {
			return nil, err
		}
		return gmail.New(client, creds.Email, f.GmailOpts...), nil
	case oauth.MicrosoftProviderName:
		if f.Microsoft == nil {
			return nil, fmt.Errorf("outreach: microsoft mailboxes are not configured")
		}
		client, err := f.Microsoft.Client(ctx, tokens)
		if err != nil {
			return nil, err
		}
		return outlook.New(client, f.OutlookOpts...), nil
	default:
		return nil, fmt.Errorf("outreach: unsupported mailbox provider %q", creds.Provider)
	}
}

// ChannelSelector picks the delivery channel for a campaign owner.
type ChannelSelector interface {
	ChannelFor(ctx context.Context, user User) Channel
}

// Selector prefers the owner's connected mailbox, falling back to the relay
// per message. Owners without a usable mailbox always get the relay.
type Selector struct {
	creds     CredentialStore
	mailboxes MailboxFactory
	relay     Channel
	body      *mailer.BodyRenderer
	log       *slog.Logger
	metrics   *Metrics
}

// NewSelector creates a Selector. relay must not be nil.
func NewSelector(creds CredentialStore, mailboxes MailboxFactory, relay Channel, body *mailer.BodyRenderer, log *slog.Logger, metrics *Metrics) *Selector {
	if log == nil {
		log = slog.Default()
	}
	return &Selector{creds: creds, mailboxes: mailboxes, relay: relay, body: body, log: log, metrics: metrics}
}

// ChannelFor implements ChannelSelector. Credential or mailbox errors are
// logged and degrade to the relay.
func (s *Selector) ChannelFor(ctx context.Context, user User) Channel {
	if s.creds == nil || s.mailboxes == nil {
		return s.relay
	}

	creds, err := s.creds.MailboxCredentials(ctx, user.ID)
	if err != nil {
		s.log.WarnContext(ctx, "mailbox credential lookup failed, using relay",
			slog.String("user_id", user.ID), slog.String("error", err.Error()))
		return s.relay
	}
	if !creds.Usable() {
		return s.relay
	}

	sender, err := s.mailboxes.Mailbox(ctx, *creds)
	if err != nil {
		s.log.WarnContext(ctx, "mailbox unavailable, using relay",
			slog.String("user_id", user.ID), slog.String("provider", creds.Provider), slog.String("error", err.Error()))
		return s.relay
	}

	mailbox := NewSenderChannel(ChannelMailbox, sender, s.body)
	return WithFallback(mailbox, s.relay, func(ctx context.Context, o Outcome) {
		s.metrics.fallback()
		s.log.WarnContext(ctx, "mailbox delivery failed, retrying via relay",
			slog.String("prospect_id", o.ProspectID.String()), slog.String("reason", o.Reason))
	})
}
