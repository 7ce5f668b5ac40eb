package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/outreach/internal/outreach"
	"github.com/dmitrymomot/outreach/pkg/db"
)

// CampaignSummary is a campaign with the sizes of its sequence and audience.
type CampaignSummary struct {
	outreach.Campaign
	StepCount     int `json:"step_count"`
	ProspectCount int `json:"prospect_count"`
}

// CampaignDetail is a campaign with its full sequence.
type CampaignDetail struct {
	outreach.Campaign
	Steps         []outreach.Step `json:"steps"`
	ProspectCount int             `json:"prospect_count"`
}

// NewCampaign is the input of CreateCampaign.
type NewCampaign struct {
	UserID      string
	Name        string
	Description string
	Steps       []NewStep
	Prospects   []NewProspect
}

// CampaignPatch holds the fields of a partial campaign update; nil fields
// are left unchanged.
type CampaignPatch struct {
	Name        *string
	Description *string
	Status      *outreach.CampaignStatus
}

// ListCampaigns returns the campaigns owned by userID, newest first.
func (r *Repository) ListCampaigns(ctx context.Context, userID string) ([]CampaignSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+campaignColumns+`,
		   (SELECT count(*) FROM sequence_steps s WHERE s.campaign_id = c.id),
		   (SELECT count(*) FROM prospects p WHERE p.campaign_id = c.id)
		 FROM campaigns c
		 WHERE c.user_id = $1
		 ORDER BY c.created_at DESC, c.id`,
		userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CampaignSummary, error) {
		var (
			s      CampaignSummary
			status string
		)
		err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Description, &status, &s.CreatedAt, &s.UpdatedAt,
			&s.StepCount, &s.ProspectCount)
		s.Status = outreach.CampaignStatus(status)
		return s, err
	})
}

// CreateCampaign stores a DRAFT campaign together with its initial steps and
// prospects in one transaction. Prospects with duplicate e-mails are
// collapsed to the first occurrence.
func (r *Repository) CreateCampaign(ctx context.Context, in NewCampaign) (*CampaignDetail, error) {
	now := time.Now().UTC()
	detail := &CampaignDetail{
		Campaign: outreach.Campaign{
			ID:          uuid.New(),
			UserID:      in.UserID,
			Name:        strings.TrimSpace(in.Name),
			Description: strings.TrimSpace(in.Description),
			Status:      outreach.CampaignDraft,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		Steps: []outreach.Step{},
	}

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO campaigns (id, user_id, name, description, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
			detail.ID, detail.UserID, detail.Name, detail.Description, string(detail.Status), now)
		if err != nil {
			return mapError(err)
		}

		for _, ns := range in.Steps {
			step, err := insertStep(ctx, tx, detail.ID, ns, now)
			if err != nil {
				return err
			}
			detail.Steps = append(detail.Steps, *step)
		}

		n, err := insertProspects(ctx, tx, detail.ID, in.Prospects, now)
		if err != nil {
			return err
		}
		detail.ProspectCount = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// GetCampaign returns a campaign owned by userID with its ordered steps.
func (r *Repository) GetCampaign(ctx context.Context, campaignID uuid.UUID, userID string) (*CampaignDetail, error) {
	c, err := r.ownedCampaign(ctx, r.pool, campaignID, userID)
	if err != nil {
		return nil, err
	}

	steps, err := collectSteps(r.pool.Query(ctx,
		`SELECT `+stepColumns+` FROM sequence_steps s WHERE s.campaign_id = $1 ORDER BY s.step_order`,
		campaignID))
	if err != nil {
		return nil, fmt.Errorf("load steps: %w", err)
	}

	detail := &CampaignDetail{Campaign: *c, Steps: steps}
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM prospects WHERE campaign_id = $1`, campaignID,
	).Scan(&detail.ProspectCount); err != nil {
		return nil, err
	}
	return detail, nil
}

// UpdateCampaign applies patch to a campaign owned by userID.
func (r *Repository) UpdateCampaign(ctx context.Context, campaignID uuid.UUID, userID string, patch CampaignPatch) (*outreach.Campaign, error) {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	c, err := scanCampaign(r.pool.QueryRow(ctx,
		`UPDATE campaigns c SET
		   name = COALESCE($3, c.name),
		   description = COALESCE($4, c.description),
		   status = COALESCE($5, c.status),
		   updated_at = now()
		 WHERE c.id = $1 AND c.user_id = $2
		 RETURNING `+campaignColumns,
		campaignID, userID, patch.Name, patch.Description, status))
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// DeleteCampaign removes a campaign owned by userID with everything under it.
func (r *Repository) DeleteCampaign(ctx context.Context, campaignID uuid.UUID, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1 AND user_id = $2`, campaignID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return outreach.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) ownedCampaign(ctx context.Context, q querier, campaignID uuid.UUID, userID string) (*outreach.Campaign, error) {
	c, err := scanCampaign(q.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campaigns c WHERE c.id = $1 AND c.user_id = $2`,
		campaignID, userID))
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}
