package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/outreach/internal/outreach"
	"github.com/dmitrymomot/outreach/internal/repository"
	"github.com/dmitrymomot/outreach/internal/server"
)

// templateFields collects step templates that use placeholders no prospect
// variable fills.
type templateFields map[string]string

func (f templateFields) check(field string, tmpl *string) {
	if tmpl == nil {
		return
	}
	if unknown := outreach.UnknownPlaceholders(*tmpl); len(unknown) > 0 {
		f[field] = fmt.Sprintf("unknown placeholder [%s]", strings.Join(unknown, "], ["))
	}
}

func (f templateFields) err() error {
	if len(f) == 0 {
		return nil
	}
	return server.ErrUnprocessable("validation failed", server.WithErrorCode("invalid_input"), server.WithFields(f))
}

type stepRequest struct {
	Order     int    `json:"order" validate:"gte=0"`
	Subject   string `json:"subject" validate:"max=255"`
	Content   string `json:"content" validate:"required,max=20000"`
	DelayDays int    `json:"delay_days" validate:"gte=0,lte=365"`
}

func (r stepRequest) checkTemplates(f templateFields, prefix string) {
	f.check(prefix+"subject", &r.Subject)
	f.check(prefix+"content", &r.Content)
}

func (r stepRequest) toNew() repository.NewStep {
	return repository.NewStep{Order: r.Order, Subject: r.Subject, Content: r.Content, DelayDays: r.DelayDays}
}

type prospectRequest struct {
	Email   string `json:"email" validate:"required,email,max=320"`
	Name    string `json:"name" validate:"max=200"`
	Company string `json:"company" validate:"max=200"`
	Title   string `json:"title" validate:"max=200"`
}

func toNewProspects(in []prospectRequest) []repository.NewProspect {
	out := make([]repository.NewProspect, 0, len(in))
	for _, p := range in {
		out = append(out, repository.NewProspect{Email: p.Email, Name: p.Name, Company: p.Company, Title: p.Title})
	}
	return out
}

type createCampaignRequest struct {
	Name        string            `json:"name" validate:"required,max=200"`
	Description string            `json:"description" validate:"max=2000"`
	Steps       []stepRequest     `json:"steps" validate:"omitempty,dive"`
	Prospects   []prospectRequest `json:"prospects" validate:"omitempty,max=1000,dive"`
}

type updateCampaignRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Status      *string `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE PAUSED COMPLETED"`
}

func (r updateCampaignRequest) toPatch() repository.CampaignPatch {
	patch := repository.CampaignPatch{Name: r.Name, Description: r.Description}
	if r.Status != nil {
		s := outreach.CampaignStatus(*r.Status)
		patch.Status = &s
	}
	return patch
}

type updateStepRequest struct {
	Order     *int    `json:"order" validate:"omitempty,gte=0"`
	Subject   *string `json:"subject" validate:"omitempty,max=255"`
	Content   *string `json:"content" validate:"omitempty,min=1,max=20000"`
	DelayDays *int    `json:"delay_days" validate:"omitempty,gte=0,lte=365"`
}

func (r updateStepRequest) checkTemplates() error {
	f := templateFields{}
	f.check("subject", r.Subject)
	f.check("content", r.Content)
	return f.err()
}

func (r updateStepRequest) toPatch() repository.StepPatch {
	return repository.StepPatch{Order: r.Order, Subject: r.Subject, Content: r.Content, DelayDays: r.DelayDays}
}

type addProspectsRequest struct {
	Prospects []prospectRequest `json:"prospects" validate:"required,min=1,max=1000,dive"`
}

type mailboxRequest struct {
	Provider     string    `json:"provider" validate:"required,oneof=google microsoft"`
	Email        string    `json:"email" validate:"required,email"`
	AccessToken  string    `json:"access_token" validate:"required"`
	RefreshToken string    `json:"refresh_token" validate:"required"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (r mailboxRequest) toCredentials() outreach.MailboxCredentials {
	return outreach.MailboxCredentials{
		Provider:     r.Provider,
		Email:        r.Email,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		Expiry:       r.ExpiresAt,
	}
}
