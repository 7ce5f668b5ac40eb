// Package gmail sends mail from a connected Gmail mailbox through the Gmail API.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrymomot/outreach/pkg/mailer"
)

// DefaultBaseURL is the Gmail API root.
const DefaultBaseURL = "https://gmail.googleapis.com"

// Sender delivers mail as the mailbox owner. The HTTP client must already
// be authorized, see oauth.Provider.Client.
type Sender struct {
	client  *http.Client
	baseURL string
	from    string
}

// Option configures the Sender.
type Option func(*Sender)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(s *Sender) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// New creates a sender for the mailbox address from.
func New(client *http.Client, from string, opts ...Option) *Sender {
	s := &Sender{client: client, baseURL: DefaultBaseURL, from: from}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	msg := *email
	if msg.From == "" {
		msg.From = s.from
	}

	raw, err := mailer.BuildMIME(&msg)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{
		"raw": base64.URLEncoding.EncodeToString(raw),
	})
	if err != nil {
		return fmt.Errorf("gmail: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/gmail/v1/users/me/messages/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("gmail: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Join(mailer.ErrSendFailed, fmt.Errorf("gmail: %w", err))
	}
	defer resp.Body.Close()

	return mailer.CheckResponse("gmail", resp)
}
