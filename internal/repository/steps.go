package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/outreach/internal/outreach"
	"github.com/dmitrymomot/outreach/pkg/db"
)

// NewStep is the input of a sequence step insert.
type NewStep struct {
	Order     int
	Subject   string
	Content   string
	DelayDays int
}

// StepPatch holds the fields of a partial step update; nil fields are left
// unchanged.
type StepPatch struct {
	Order     *int
	Subject   *string
	Content   *string
	DelayDays *int
}

// ListSteps returns the ordered sequence of a campaign owned by userID.
func (r *Repository) ListSteps(ctx context.Context, campaignID uuid.UUID, userID string) ([]outreach.Step, error) {
	if _, err := r.ownedCampaign(ctx, r.pool, campaignID, userID); err != nil {
		return nil, err
	}
	return collectSteps(r.pool.Query(ctx,
		`SELECT `+stepColumns+` FROM sequence_steps s WHERE s.campaign_id = $1 ORDER BY s.step_order`,
		campaignID))
}

// CreateStep appends a step to a campaign owned by userID.
func (r *Repository) CreateStep(ctx context.Context, campaignID uuid.UUID, userID string, in NewStep) (*outreach.Step, error) {
	var step *outreach.Step
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := r.ownedCampaign(ctx, tx, campaignID, userID); err != nil {
			return err
		}
		var err error
		step, err = insertStep(ctx, tx, campaignID, in, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return step, nil
}

// UpdateStep applies patch to a step of a campaign owned by userID.
func (r *Repository) UpdateStep(ctx context.Context, campaignID, stepID uuid.UUID, userID string, patch StepPatch) (*outreach.Step, error) {
	step, err := scanStep(r.pool.QueryRow(ctx,
		`UPDATE sequence_steps s SET
		   step_order = COALESCE($4, s.step_order),
		   subject = COALESCE($5, s.subject),
		   content = COALESCE($6, s.content),
		   delay_days = COALESCE($7, s.delay_days),
		   updated_at = now()
		 FROM campaigns c
		 WHERE s.id = $1 AND s.campaign_id = $2 AND c.id = s.campaign_id AND c.user_id = $3
		 RETURNING `+stepColumns,
		stepID, campaignID, userID, patch.Order, patch.Subject, patch.Content, patch.DelayDays))
	if err != nil {
		return nil, mapError(err)
	}
	return &step, nil
}

// DeleteStep removes a step of a campaign owned by userID.
func (r *Repository) DeleteStep(ctx context.Context, campaignID, stepID uuid.UUID, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM sequence_steps s
		 USING campaigns c
		 WHERE s.id = $1 AND s.campaign_id = $2 AND c.id = s.campaign_id AND c.user_id = $3`,
		stepID, campaignID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return outreach.ErrRecordNotFound
	}
	return nil
}

func insertStep(ctx context.Context, q querier, campaignID uuid.UUID, in NewStep, now time.Time) (*outreach.Step, error) {
	step := outreach.Step{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Order:      in.Order,
		Subject:    in.Subject,
		Content:    in.Content,
		DelayDays:  in.DelayDays,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := q.Exec(ctx,
		`INSERT INTO sequence_steps (id, campaign_id, step_order, subject, content, delay_days, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		step.ID, step.CampaignID, step.Order, step.Subject, step.Content, step.DelayDays, now)
	if err != nil {
		return nil, mapError(err)
	}
	return &step, nil
}
