package outreach

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/outreach/pkg/cache"
)

// Engagement holds raw interaction counts of one campaign.
type Engagement struct {
	TotalProspects int `json:"total_prospects"`
	EmailsSent     int `json:"emails_sent"`
	EmailsOpened   int `json:"emails_opened"`
	EmailsReplied  int `json:"emails_replied"`
	MeetingsBooked int `json:"meetings_booked"`
}

// Rates are percentages of sent e-mails, zero while nothing was sent.
type Rates struct {
	OpenRate    float64 `json:"open_rate"`
	ReplyRate   float64 `json:"reply_rate"`
	MeetingRate float64 `json:"meeting_rate"`
}

// Stats is the engagement report of a campaign.
type Stats struct {
	CampaignID   uuid.UUID      `json:"campaign_id"`
	CampaignName string         `json:"campaign_name"`
	Status       CampaignStatus `json:"status"`
	Engagement
	Rates
	LastUpdated time.Time `json:"last_updated"`
}

// ComputeRates derives percentages from raw counts.
func ComputeRates(e Engagement) Rates {
	if e.EmailsSent == 0 {
		return Rates{}
	}
	sent := float64(e.EmailsSent)
	return Rates{
		OpenRate:    float64(e.EmailsOpened) / sent * 100,
		ReplyRate:   float64(e.EmailsReplied) / sent * 100,
		MeetingRate: float64(e.MeetingsBooked) / sent * 100,
	}
}

// StatsStore reads engagement counts for a campaign owned by userID.
// It returns ErrRecordNotFound when there is no match.
type StatsStore interface {
	CampaignEngagement(ctx context.Context, campaignID uuid.UUID, userID string) (*Campaign, Engagement, error)
}

// StatsService serves engagement stats through a read-through cache.
type StatsService struct {
	store StatsStore
	cache cache.Cache[Stats]
	ttl   time.Duration
	log   *slog.Logger
	now   func() time.Time
}

// NewStatsService creates a StatsService caching reports for ttl.
func NewStatsService(store StatsStore, c cache.Cache[Stats], ttl time.Duration, log *slog.Logger) *StatsService {
	if log == nil {
		log = slog.Default()
	}
	return &StatsService{store: store, cache: c, ttl: ttl, log: log, now: time.Now}
}

func statsKey(campaignID uuid.UUID, userID string) string {
	return "campaign-stats:" + campaignID.String() + ":" + userID
}

// Stats returns the engagement report of a campaign owned by userID.
func (s *StatsService) Stats(ctx context.Context, campaignID uuid.UUID, userID string) (*Stats, error) {
	if userID == "" {
		return nil, errUnauthorized
	}

	st, err := cache.GetOrSet(ctx, s.cache, statsKey(campaignID, userID), s.ttl, func(ctx context.Context) (Stats, error) {
		c, e, err := s.store.CampaignEngagement(ctx, campaignID, userID)
		if err != nil {
			return Stats{}, err
		}
		return Stats{
			CampaignID:   c.ID,
			CampaignName: c.Name,
			Status:       c.Status,
			Engagement:   e,
			Rates:        ComputeRates(e),
			LastUpdated:  s.now().UTC(),
		}, nil
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, errCampaignNotFound
		}
		return nil, internalError(err)
	}
	return &st, nil
}

// Invalidate implements StatsInvalidator.
func (s *StatsService) Invalidate(ctx context.Context, campaignID uuid.UUID, userID string) {
	if err := s.cache.Delete(ctx, statsKey(campaignID, userID)); err != nil {
		s.log.WarnContext(ctx, "stats cache invalidation failed",
			slog.String("campaign_id", campaignID.String()), slog.String("error", err.Error()))
	}
}
