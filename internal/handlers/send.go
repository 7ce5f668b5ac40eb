package handlers

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/outreach/internal/outreach"
	"github.com/dmitrymomot/outreach/internal/server"
)

// CampaignSender runs a campaign send.
type CampaignSender interface {
	SendCampaign(ctx context.Context, req outreach.SendRequest) (*outreach.SendResult, error)
}

// SendHandler serves POST /api/campaigns/{id}/send.
type SendHandler struct {
	sender CampaignSender
	auth   server.Middleware
}

// NewSendHandler creates a send handler.
func NewSendHandler(sender CampaignSender, auth server.Middleware) *SendHandler {
	return &SendHandler{sender: sender, auth: auth}
}

// Routes implements server.Handler.
func (h *SendHandler) Routes(r server.Router) {
	r.Group(func(r server.Router) {
		r.Use(h.auth)
		r.POST("/api/campaigns/{id}/send", h.send)
	})
}

// send blocks until every message was attempted and the results recorded.
// The request context bounds the dispatch only; reconciliation always runs.
func (h *SendHandler) send(c server.Context) error {
	id, err := server.ParamUUID(c, "id")
	if err != nil {
		return err
	}

	result, err := h.sender.SendCampaign(c, outreach.SendRequest{
		CampaignID: id,
		User:       currentUser(c),
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}
