package handlers

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/outreach/internal/outreach"
	"github.com/dmitrymomot/outreach/internal/server"
)

// MailboxStore persists the caller's connected mailbox.
type MailboxStore interface {
	SaveMailbox(ctx context.Context, userID string, creds outreach.MailboxCredentials) error
	DeleteMailbox(ctx context.Context, userID string) error
}

// MailboxHandler lets callers register the tokens of a mailbox connected
// through an external OAuth flow, or disconnect it.
type MailboxHandler struct {
	store MailboxStore
	auth  server.Middleware
}

// NewMailboxHandler creates a mailbox handler.
func NewMailboxHandler(store MailboxStore, auth server.Middleware) *MailboxHandler {
	return &MailboxHandler{store: store, auth: auth}
}

// Routes implements server.Handler.
func (h *MailboxHandler) Routes(r server.Router) {
	r.Group(func(r server.Router) {
		r.Use(h.auth)
		r.PUT("/api/mailbox", h.save)
		r.DELETE("/api/mailbox", h.remove)
	})
}

func (h *MailboxHandler) save(c server.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req mailboxRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := h.store.SaveMailbox(c, userID, req.toCredentials()); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"provider": req.Provider,
		"email":    req.Email,
	})
}

func (h *MailboxHandler) remove(c server.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	if err := h.store.DeleteMailbox(c, userID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
