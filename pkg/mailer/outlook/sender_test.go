package outlook_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/outreach/pkg/mailer"
	"github.com/dmitrymomot/outreach/pkg/mailer/outlook"
)

var _ mailer.Sender = (*outlook.Sender)(nil)

func TestSender_Send(t *testing.T) {
	t.Parallel()

	t.Run("posts graph message", func(t *testing.T) {
		t.Parallel()

		var (
			gotPath string
			gotBody map[string]any
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusAccepted)
		}))
		t.Cleanup(srv.Close)

		s := outlook.New(srv.Client(), outlook.WithBaseURL(srv.URL))
		err := s.Send(context.Background(), &mailer.Email{
			To:      []string{"Alice <alice@example.com>"},
			Subject: "Hello",
			HTML:    "<p>Hi Alice</p>",
			Text:    "Hi Alice",
			Headers: map[string]string{"X-Campaign-Id": "c1", "Precedence": "bulk"},
		})
		require.NoError(t, err)

		assert.Equal(t, "/me/sendMail", gotPath)
		assert.Equal(t, true, gotBody["saveToSentItems"])

		msg := gotBody["message"].(map[string]any)
		assert.Equal(t, "Hello", msg["subject"])
		body := msg["body"].(map[string]any)
		assert.Equal(t, "HTML", body["contentType"])
		assert.Equal(t, "<p>Hi Alice</p>", body["content"])

		to := msg["toRecipients"].([]any)
		require.Len(t, to, 1)
		addr := to[0].(map[string]any)["emailAddress"].(map[string]any)
		assert.Equal(t, "alice@example.com", addr["address"])
		assert.Equal(t, "Alice", addr["name"])

		headers := msg["internetMessageHeaders"].([]any)
		require.Len(t, headers, 1)
		assert.Equal(t, "X-Campaign-Id", headers[0].(map[string]any)["name"])
	})

	t.Run("graph error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"InvalidAuthenticationToken"}}`))
		}))
		t.Cleanup(srv.Close)

		s := outlook.New(srv.Client(), outlook.WithBaseURL(srv.URL))
		err := s.Send(context.Background(), &mailer.Email{To: []string{"alice@example.com"}, Subject: "Hello", Text: "Hi"})
		require.ErrorIs(t, err, mailer.ErrSendFailed)
		assert.Contains(t, err.Error(), "InvalidAuthenticationToken")
	})
}
