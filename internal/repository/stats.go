package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/outreach/internal/outreach"
)

// CampaignEngagement implements outreach.StatsStore.
func (r *Repository) CampaignEngagement(ctx context.Context, campaignID uuid.UUID, userID string) (*outreach.Campaign, outreach.Engagement, error) {
	c, err := scanCampaign(r.pool.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campaigns c WHERE c.id = $1 AND c.user_id = $2`,
		campaignID, userID))
	if err != nil {
		return nil, outreach.Engagement{}, mapError(err)
	}

	var e outreach.Engagement
	err = r.pool.QueryRow(ctx,
		`SELECT
		   (SELECT count(*) FROM prospects WHERE campaign_id = $1),
		   count(*) FILTER (WHERE i.type = 'email_sent'),
		   count(*) FILTER (WHERE i.type = 'email_opened'),
		   count(*) FILTER (WHERE i.type = 'email_replied'),
		   count(*) FILTER (WHERE i.type = 'meeting_booked')
		 FROM interactions i
		 JOIN prospects p ON p.id = i.prospect_id
		 WHERE p.campaign_id = $1`,
		campaignID,
	).Scan(&e.TotalProspects, &e.EmailsSent, &e.EmailsOpened, &e.EmailsReplied, &e.MeetingsBooked)
	if err != nil {
		return nil, outreach.Engagement{}, err
	}
	return &c, e, nil
}

// CompleteExhaustedCampaigns implements outreach.CompletionStore.
func (r *Repository) CompleteExhaustedCampaigns(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE campaigns c SET status = 'COMPLETED', updated_at = now()
		 WHERE c.status = 'ACTIVE'
		   AND NOT EXISTS (
		     SELECT 1 FROM prospects p WHERE p.campaign_id = c.id AND p.status = 'PENDING'
		   )`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
