package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/outreach/internal/outreach"
	"github.com/dmitrymomot/outreach/pkg/db"
)

// NewProspect is the input of a prospect insert.
type NewProspect struct {
	Email   string
	Name    string
	Company string
	Title   string
}

// ListProspects returns the audience of a campaign owned by userID in the
// order prospects were added.
func (r *Repository) ListProspects(ctx context.Context, campaignID uuid.UUID, userID string) ([]outreach.Prospect, error) {
	if _, err := r.ownedCampaign(ctx, r.pool, campaignID, userID); err != nil {
		return nil, err
	}
	return collectProspects(r.pool.Query(ctx,
		`SELECT `+prospectColumns+` FROM prospects p WHERE p.campaign_id = $1 ORDER BY p.created_at, p.id`,
		campaignID))
}

// AddProspects adds PENDING prospects to a campaign owned by userID and
// returns how many were new. Addresses already in the campaign are skipped.
// A COMPLETED campaign that gains new prospects is reopened as ACTIVE so they
// can be sent.
func (r *Repository) AddProspects(ctx context.Context, campaignID uuid.UUID, userID string, in []NewProspect) (int, error) {
	var added int
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		c, err := r.ownedCampaign(ctx, tx, campaignID, userID)
		if err != nil {
			return err
		}
		added, err = insertProspects(ctx, tx, campaignID, in, time.Now().UTC())
		if err != nil || added == 0 || c.Status != outreach.CampaignCompleted {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE campaigns SET status = $2, updated_at = now() WHERE id = $1 AND status = $3`,
			campaignID, string(outreach.CampaignActive), string(outreach.CampaignCompleted))
		return err
	})
	return added, err
}

// insertProspects batches one insert per distinct address. Rows keep
// strictly increasing created_at so the send order follows input order.
func insertProspects(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID, in []NewProspect, now time.Time) (int, error) {
	if len(in) == 0 {
		return 0, nil
	}

	seen := make(map[string]bool, len(in))
	batch := &pgx.Batch{}
	for i, p := range in {
		email := strings.TrimSpace(p.Email)
		key := strings.ToLower(email)
		if seen[key] {
			continue
		}
		seen[key] = true

		created := now.Add(time.Duration(i) * time.Microsecond)
		batch.Queue(
			`INSERT INTO prospects (id, campaign_id, email, name, company, title, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			 ON CONFLICT (campaign_id, email) DO NOTHING`,
			uuid.New(), campaignID, email, strings.TrimSpace(p.Name), strings.TrimSpace(p.Company),
			strings.TrimSpace(p.Title), string(outreach.ProspectPending), created)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	added := 0
	for range batch.Len() {
		tag, err := results.Exec()
		if err != nil {
			return 0, mapError(err)
		}
		added += int(tag.RowsAffected())
	}
	return added, results.Close()
}
