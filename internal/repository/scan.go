package repository

import (
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/outreach/internal/outreach"
)

const (
	campaignColumns = `c.id, c.user_id, c.name, c.description, c.status, c.created_at, c.updated_at`
	stepColumns     = `s.id, s.campaign_id, s.step_order, s.subject, s.content, s.delay_days, s.created_at, s.updated_at`
	prospectColumns = `p.id, p.campaign_id, p.email, p.name, p.company, p.title, p.status, p.created_at, p.updated_at`
)

func scanCampaign(row pgx.Row) (outreach.Campaign, error) {
	var c outreach.Campaign
	var status string
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &status, &c.CreatedAt, &c.UpdatedAt)
	c.Status = outreach.CampaignStatus(status)
	return c, err
}

func scanStep(row pgx.Row) (outreach.Step, error) {
	var s outreach.Step
	err := row.Scan(&s.ID, &s.CampaignID, &s.Order, &s.Subject, &s.Content, &s.DelayDays, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func scanProspect(row pgx.Row) (outreach.Prospect, error) {
	var p outreach.Prospect
	var status string
	err := row.Scan(&p.ID, &p.CampaignID, &p.Email, &p.Name, &p.Company, &p.Title, &status, &p.CreatedAt, &p.UpdatedAt)
	p.Status = outreach.ProspectStatus(status)
	return p, err
}

func collectSteps(rows pgx.Rows, err error) ([]outreach.Step, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (outreach.Step, error) {
		return scanStep(row)
	})
}

func collectProspects(rows pgx.Rows, err error) ([]outreach.Prospect, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (outreach.Prospect, error) {
		return scanProspect(row)
	})
}
