package resend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/outreach/pkg/mailer"
	"github.com/dmitrymomot/outreach/pkg/mailer/resend"
)

var _ mailer.Sender = (*resend.Sender)(nil)

type capturedRequest struct {
	Auth string
	Body map[string]any
}

func newRelayServer(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()

	var (
		mu       sync.Mutex
		requests []capturedRequest
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		mu.Lock()
		requests = append(requests, capturedRequest{Auth: r.Header.Get("Authorization"), Body: body})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 400 {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"statusCode": status,
				"name":       "validation_error",
				"message":    "domain is not verified",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "email_123"})
	}))
	t.Cleanup(srv.Close)

	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), requests...)
	}
}

func TestNew_MissingAPIKey(t *testing.T) {
	t.Parallel()

	s, err := resend.New(resend.Config{})
	require.ErrorIs(t, err, resend.ErrMissingAPIKey)
	require.Nil(t, s)
}

func TestSender_Send(t *testing.T) {
	t.Parallel()

	t.Run("uses default from address", func(t *testing.T) {
		t.Parallel()

		srv, requests := newRelayServer(t, http.StatusOK)
		s, err := resend.New(resend.Config{
			APIKey:      "re_test",
			SenderEmail: "team@example.com",
			SenderName:  "Team",
			BaseURL:     srv.URL + "/",
		})
		require.NoError(t, err)

		err = s.Send(context.Background(), &mailer.Email{
			To:      []string{"alice@example.com"},
			Subject: "Quick question about Acme",
			Text:    "Hi Alice",
			HTML:    "<p>Hi Alice</p>",
		})
		require.NoError(t, err)

		reqs := requests()
		require.Len(t, reqs, 1)
		require.Equal(t, "Bearer re_test", reqs[0].Auth)
		require.Equal(t, "Team <team@example.com>", reqs[0].Body["from"])
		require.Equal(t, "Quick question about Acme", reqs[0].Body["subject"])
	})

	t.Run("caller from overrides default", func(t *testing.T) {
		t.Parallel()

		srv, requests := newRelayServer(t, http.StatusOK)
		s, err := resend.New(resend.Config{APIKey: "re_test", SenderEmail: "team@example.com", BaseURL: srv.URL + "/"})
		require.NoError(t, err)

		err = s.Send(context.Background(), &mailer.Email{
			From:    "Jane <jane@example.com>",
			To:      []string{"alice@example.com"},
			Subject: "Hi",
			Text:    "Hello",
		})
		require.NoError(t, err)
		require.Equal(t, "Jane <jane@example.com>", requests()[0].Body["from"])
	})

	t.Run("provider error", func(t *testing.T) {
		t.Parallel()

		srv, _ := newRelayServer(t, http.StatusUnprocessableEntity)
		s, err := resend.New(resend.Config{APIKey: "re_test", SenderEmail: "team@example.com", BaseURL: srv.URL + "/"})
		require.NoError(t, err)

		err = s.Send(context.Background(), &mailer.Email{
			To:      []string{"alice@example.com"},
			Subject: "Hi",
			Text:    "Hello",
		})
		require.ErrorIs(t, err, mailer.ErrSendFailed)
	})

	t.Run("invalid email is rejected before the API call", func(t *testing.T) {
		t.Parallel()

		srv, requests := newRelayServer(t, http.StatusOK)
		s, err := resend.New(resend.Config{APIKey: "re_test", SenderEmail: "team@example.com", BaseURL: srv.URL + "/"})
		require.NoError(t, err)

		err = s.Send(context.Background(), &mailer.Email{Subject: "Hi", Text: "Hello"})
		require.ErrorIs(t, err, mailer.ErrNoRecipient)
		require.Empty(t, requests())
	})
}
