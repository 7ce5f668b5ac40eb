package outreach

import (
	"context"
	"log/slog"
)

// CompletionStore finishes campaigns that have nobody left to contact.
type CompletionStore interface {
	// CompleteExhaustedCampaigns moves ACTIVE campaigns without PENDING
	// prospects to COMPLETED and returns how many changed.
	CompleteExhaustedCampaigns(ctx context.Context) (int64, error)
}

// CompletionSweep is a periodic task closing out exhausted campaigns.
type CompletionSweep struct {
	store    CompletionStore
	schedule string
	log      *slog.Logger
	metrics  *Metrics
}

// NewCompletionSweep creates the sweep with a five-field cron schedule.
func NewCompletionSweep(store CompletionStore, schedule string, log *slog.Logger, metrics *Metrics) *CompletionSweep {
	if log == nil {
		log = slog.Default()
	}
	return &CompletionSweep{store: store, schedule: schedule, log: log, metrics: metrics}
}

func (s *CompletionSweep) Name() string     { return "campaign_completion_sweep" }
func (s *CompletionSweep) Schedule() string { return s.schedule }

func (s *CompletionSweep) Handle(ctx context.Context) error {
	n, err := s.store.CompleteExhaustedCampaigns(ctx)
	if err != nil {
		return err
	}
	s.metrics.campaignsCompleted(n)
	if n > 0 {
		s.log.InfoContext(ctx, "campaigns completed", slog.Int64("count", n))
	}
	return nil
}
