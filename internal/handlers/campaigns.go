package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/outreach/internal/outreach"
	"github.com/dmitrymomot/outreach/internal/repository"
	"github.com/dmitrymomot/outreach/internal/server"
)

// CampaignStore is the persistence the campaign endpoints need.
type CampaignStore interface {
	ListCampaigns(ctx context.Context, userID string) ([]repository.CampaignSummary, error)
	CreateCampaign(ctx context.Context, in repository.NewCampaign) (*repository.CampaignDetail, error)
	GetCampaign(ctx context.Context, campaignID uuid.UUID, userID string) (*repository.CampaignDetail, error)
	UpdateCampaign(ctx context.Context, campaignID uuid.UUID, userID string, patch repository.CampaignPatch) (*outreach.Campaign, error)
	DeleteCampaign(ctx context.Context, campaignID uuid.UUID, userID string) error

	ListSteps(ctx context.Context, campaignID uuid.UUID, userID string) ([]outreach.Step, error)
	CreateStep(ctx context.Context, campaignID uuid.UUID, userID string, in repository.NewStep) (*outreach.Step, error)
	UpdateStep(ctx context.Context, campaignID, stepID uuid.UUID, userID string, patch repository.StepPatch) (*outreach.Step, error)
	DeleteStep(ctx context.Context, campaignID, stepID uuid.UUID, userID string) error

	ListProspects(ctx context.Context, campaignID uuid.UUID, userID string) ([]outreach.Prospect, error)
	AddProspects(ctx context.Context, campaignID uuid.UUID, userID string, in []repository.NewProspect) (int, error)
}

// StatsProvider serves cached campaign statistics.
type StatsProvider interface {
	Stats(ctx context.Context, campaignID uuid.UUID, userID string) (*outreach.Stats, error)
	Invalidate(ctx context.Context, campaignID uuid.UUID, userID string)
}

// CampaignHandler serves campaign, sequence and prospect management.
type CampaignHandler struct {
	store CampaignStore
	stats StatsProvider
	auth  server.Middleware
}

// NewCampaignHandler creates a campaign handler. Every route requires auth.
func NewCampaignHandler(store CampaignStore, stats StatsProvider, auth server.Middleware) *CampaignHandler {
	return &CampaignHandler{store: store, stats: stats, auth: auth}
}

// Routes implements server.Handler.
func (h *CampaignHandler) Routes(r server.Router) {
	r.Group(func(r server.Router) {
		r.Use(h.auth)

		r.GET("/api/campaigns", h.list)
		r.POST("/api/campaigns", h.create)
		r.GET("/api/campaigns/{id}", h.get)
		r.PATCH("/api/campaigns/{id}", h.update)
		r.DELETE("/api/campaigns/{id}", h.delete)
		r.GET("/api/campaigns/{id}/stats", h.getStats)

		r.GET("/api/campaigns/{id}/sequences", h.listSteps)
		r.POST("/api/campaigns/{id}/sequences", h.createStep)
		r.GET("/api/campaigns/{id}/sequences/{stepID}", h.getStep)
		r.PATCH("/api/campaigns/{id}/sequences/{stepID}", h.updateStep)
		r.DELETE("/api/campaigns/{id}/sequences/{stepID}", h.deleteStep)

		r.GET("/api/campaigns/{id}/prospects", h.listProspects)
		r.POST("/api/campaigns/{id}/prospects", h.addProspects)
	})
}

// scope resolves the caller and the campaign ID of a campaign route.
func scope(c server.Context) (uuid.UUID, string, error) {
	userID, err := requireUser(c)
	if err != nil {
		return uuid.Nil, "", err
	}
	id, err := server.ParamUUID(c, "id")
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, userID, nil
}

func (h *CampaignHandler) list(c server.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	campaigns, err := h.store.ListCampaigns(c, userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"campaigns": campaigns, "total": len(campaigns)})
}

func (h *CampaignHandler) create(c server.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req createCampaignRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	tf := templateFields{}
	for i, s := range req.Steps {
		s.checkTemplates(tf, fmt.Sprintf("steps[%d].", i))
	}
	if err := tf.err(); err != nil {
		return err
	}

	in := repository.NewCampaign{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Prospects:   toNewProspects(req.Prospects),
	}
	for _, s := range req.Steps {
		in.Steps = append(in.Steps, s.toNew())
	}

	campaign, err := h.store.CreateCampaign(c, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, campaign)
}

func (h *CampaignHandler) get(c server.Context) error {
	id, userID, err := scope(c)
	if err != nil {
		return err
	}
	campaign, err := h.store.GetCampaign(c, id, userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, campaign)
}

func (h *CampaignHandler) update(c server.Context) error {
	id, userID, err := scope(c)
	if err != nil {
		return err
	}
	var req updateCampaignRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	campaign, err := h.store.UpdateCampaign(c, id, userID, req.toPatch())
	if err != nil {
		return httpError(err)
	}
	h.stats.Invalidate(c, id, userID)
	return c.JSON(http.StatusOK, campaign)
}

func (h *CampaignHandler) delete(c server.Context) error {
	id, userID, err := scope(c)
	if err != nil {
		return err
	}
	if err := h.store.DeleteCampaign(c, id, userID); err != nil {
		return httpError(err)
	}
	h.stats.Invalidate(c, id, userID)
	return c.NoContent(http.StatusNoContent)
}

func (h *CampaignHandler) getStats(c server.Context) error {
	id, err := server.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	// Anonymous callers are rejected by the stats service itself.
	stats, err := h.stats.Stats(c, id, currentUser(c).ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *CampaignHandler) listSteps(c server.Context) error {
	id, userID, err := scope(c)
	if err != nil {
		return err
	}
	steps, err := h.store.ListSteps(c, id, userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"steps": steps})
}

func (h *CampaignHandler) createStep(c server.Context) error {
	id, userID, err := scope(c)
	if err != nil {
		return err
	}
	var req stepRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	tf := templateFields{}
	req.checkTemplates(tf, "")
	if err := tf.err(); err != nil {
		return err
	}
	step, err := h.store.CreateStep(c, id, userID, req.toNew())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, step)
}

func (h *CampaignHandler) getStep(c server.Context) error {
	id, userID, err := scope(c)
	if err != nil {
		return err
	}
	stepID, err := server.ParamUUID(c, "stepID")
	if err != nil {
		return err
	}
	steps, err := h.store.ListSteps(c, id, userID)
	if err != nil {
		return httpError(err)
	}
	for _, s := range steps {
		if s.ID == stepID {
			return c.JSON(http.StatusOK, s)
		}
	}
	return httpError(outreach.ErrRecordNotFound)
}

func (h *CampaignHandler) updateStep(c server.Context) error {
	id, userID, err := scope(c)
	if err != nil {
		return err
	}
	stepID, err := server.ParamUUID(c, "stepID")
	if err != nil {
		return err
	}
	var req updateStepRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := req.checkTemplates(); err != nil {
		return err
	}
	step, err := h.store.UpdateStep(c, id, stepID, userID, req.toPatch())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, step)
}

func (h *CampaignHandler) deleteStep(c server.Context) error {
	id, userID, err := scope(c)
	if err != nil {
		return err
	}
	stepID, err := server.ParamUUID(c, "stepID")
	if err != nil {
		return err
	}
	if err := h.store.DeleteStep(c, id, stepID, userID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CampaignHandler) listProspects(c server.Context) error {
	id, userID, err := scope(c)
	if err != nil {
		return err
	}
	prospects, err := h.store.ListProspects(c, id, userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"prospects": prospects, "total": len(prospects)})
}

func (h *CampaignHandler) addProspects(c server.Context) error {
	id, userID, err := scope(c)
	if err != nil {
		return err
	}
	var req addProspectsRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	added, err := h.store.AddProspects(c, id, userID, toNewProspects(req.Prospects))
	if err != nil {
		return httpError(err)
	}
	h.stats.Invalidate(c, id, userID)
	return c.JSON(http.StatusCreated, map[string]int{
		"added":   added,
		"skipped": len(req.Prospects) - added,
	})
}
