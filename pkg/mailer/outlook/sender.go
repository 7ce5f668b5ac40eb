// Package outlook sends mail from a connected Microsoft 365 mailbox through Microsoft Graph.
package outlook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/dmitrymomot/outreach/pkg/mailer"
)

// DefaultBaseURL is the Microsoft Graph root.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

type emailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

type itemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type message struct {
	Subject                string      `json:"subject"`
	Body                   itemBody    `json:"body"`
	ToRecipients           []recipient `json:"toRecipients"`
	ReplyTo                []recipient `json:"replyTo,omitempty"`
	InternetMessageHeaders []header    `json:"internetMessageHeaders,omitempty"`
}

type sendMailRequest struct {
	Message         message `json:"message"`
	SaveToSentItems bool    `json:"saveToSentItems"`
}

// Sender delivers mail as the signed-in mailbox owner. The HTTP client must
// already be authorized, see oauth.Provider.Client.
type Sender struct {
	client  *http.Client
	baseURL string
}

// Option configures the Sender.
type Option func(*Sender)

// WithBaseURL overrides the Graph root.
func WithBaseURL(u string) Option {
	return func(s *Sender) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// New creates a Graph sender.
func New(client *http.Client, opts ...Option) *Sender {
	s := &Sender{client: client, baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send implements mailer.Sender. The From field is ignored: Graph always
// sends as the authorized mailbox.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if err := mailer.Validate(email); err != nil {
		return err
	}

	msg := message{Subject: email.Subject}
	if email.HTML != "" {
		msg.Body = itemBody{ContentType: "HTML", Content: email.HTML}
	} else {
		msg.Body = itemBody{ContentType: "Text", Content: email.Text}
	}

	for _, to := range email.To {
		r, err := toRecipient(to)
		if err != nil {
			return fmt.Errorf("outlook: to: %w", err)
		}
		msg.ToRecipients = append(msg.ToRecipients, r)
	}
	if email.ReplyTo != "" {
		r, err := toRecipient(email.ReplyTo)
		if err != nil {
			return fmt.Errorf("outlook: reply-to: %w", err)
		}
		msg.ReplyTo = []recipient{r}
	}
	for name, value := range email.Headers {
		// Graph only accepts custom x- headers.
		if strings.HasPrefix(strings.ToLower(name), "x-") {
			msg.InternetMessageHeaders = append(msg.InternetMessageHeaders, header{Name: name, Value: value})
		}
	}

	payload, err := json.Marshal(sendMailRequest{Message: msg, SaveToSentItems: true})
	if err != nil {
		return fmt.Errorf("outlook: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/me/sendMail", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("outlook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Join(mailer.ErrSendFailed, fmt.Errorf("outlook: %w", err))
	}
	defer resp.Body.Close()

	return mailer.CheckResponse("outlook", resp)
}

func toRecipient(s string) (recipient, error) {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return recipient{}, err
	}
	return recipient{EmailAddress: emailAddress{Address: addr.Address, Name: addr.Name}}, nil
}
