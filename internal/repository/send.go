package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/outreach/internal/outreach"
	"github.com/dmitrymomot/outreach/pkg/db"
)

// SendSnapshot implements outreach.Store. The campaign, its steps and its
// PENDING prospects are read in one repeatable-read transaction.
func (r *Repository) SendSnapshot(ctx context.Context, campaignID uuid.UUID, userID string) (*outreach.SendSnapshot, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	c, err := scanCampaign(tx.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campaigns c WHERE c.id = $1 AND c.user_id = $2`,
		campaignID, userID))
	if err != nil {
		return nil, mapError(err)
	}

	steps, err := collectSteps(tx.Query(ctx,
		`SELECT `+stepColumns+` FROM sequence_steps s WHERE s.campaign_id = $1 ORDER BY s.step_order`,
		campaignID))
	if err != nil {
		return nil, fmt.Errorf("load steps: %w", err)
	}

	pending, err := collectProspects(tx.Query(ctx,
		`SELECT `+prospectColumns+` FROM prospects p
		 WHERE p.campaign_id = $1 AND p.status = $2
		 ORDER BY p.created_at, p.id`,
		campaignID, string(outreach.ProspectPending)))
	if err != nil {
		return nil, fmt.Errorf("load prospects: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &outreach.SendSnapshot{Campaign: c, Steps: steps, Pending: pending}, nil
}

// Reconcile implements outreach.Store. Only prospects still PENDING move to
// contacted, and interactions are recorded for those alone.
func (r *Repository) Reconcile(ctx context.Context, rec outreach.Reconciliation) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE campaigns SET status = $2, updated_at = now() WHERE id = $1`,
			rec.CampaignID, string(outreach.CampaignActive))
		if err != nil {
			return fmt.Errorf("activate campaign: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return outreach.ErrRecordNotFound
		}

		if len(rec.Contacted) == 0 {
			return nil
		}

		rows, err := tx.Query(ctx,
			`UPDATE prospects SET status = $3, updated_at = now()
			 WHERE campaign_id = $1 AND id = ANY($2) AND status = $4
			 RETURNING id`,
			rec.CampaignID, rec.Contacted, string(outreach.ProspectContacted), string(outreach.ProspectPending))
		if err != nil {
			return fmt.Errorf("mark contacted: %w", err)
		}
		updated, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return fmt.Errorf("mark contacted: %w", err)
		}

		changed := make(map[uuid.UUID]bool, len(updated))
		for _, id := range updated {
			changed[id] = true
		}

		now := time.Now().UTC()
		var copyRows [][]any
		for _, in := range rec.Interactions {
			if !changed[in.ProspectID] {
				continue
			}
			id := in.ID
			if id == uuid.Nil {
				id = uuid.New()
			}
			created := in.CreatedAt
			if created.IsZero() {
				created = now
			}
			copyRows = append(copyRows, []any{id, in.ProspectID, string(in.Type), in.Content, created})
		}
		if len(copyRows) == 0 {
			return nil
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"interactions"},
			[]string{"id", "prospect_id", "type", "content", "created_at"},
			pgx.CopyFromRows(copyRows))
		if err != nil {
			return fmt.Errorf("record interactions: %w", err)
		}
		return nil
	})
}
