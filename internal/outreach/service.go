package outreach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/outreach/pkg/lock"
)

// Store is the persistence the send pipeline needs.
type Store interface {
	// SendSnapshot loads the campaign owned by userID with its steps and
	// PENDING prospects. It returns ErrRecordNotFound when there is no match.
	SendSnapshot(ctx context.Context, campaignID uuid.UUID, userID string) (*SendSnapshot, error)
	// Reconcile applies the whole write set in one transaction.
	Reconcile(ctx context.Context, rec Reconciliation) error
}

// StatsInvalidator drops cached engagement stats.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, campaignID uuid.UUID, userID string)
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records send metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithStatsInvalidator clears cached stats after every reconciled send.
func WithStatsInvalidator(inv StatsInvalidator) Option {
	return func(s *Service) { s.stats = inv }
}

// WithReportArchive archives a report of every reconciled send. Archive
// failures are logged and never fail the send.
func WithReportArchive(a ReportArchive) Option {
	return func(s *Service) { s.reports = a }
}

// WithLockTTL sets the base lease time of the per-campaign send lock. The
// dispatcher's batch budget is added on top.
func WithLockTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lockTTL = d
		}
	}
}

// Service orchestrates campaign sends.
type Service struct {
	store      Store
	selector   ChannelSelector
	dispatcher *Dispatcher
	locker     lock.Locker
	log        *slog.Logger
	metrics    *Metrics
	stats      StatsInvalidator
	reports    ReportArchive
	lockTTL    time.Duration
}

// NewService wires the send pipeline.
func NewService(store Store, selector ChannelSelector, dispatcher *Dispatcher, locker lock.Locker, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		store:      store,
		selector:   selector,
		dispatcher: dispatcher,
		locker:     locker,
		log:        log,
		lockTTL:    time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sendLockKey(id uuid.UUID) string {
	return "campaign-send:" + id.String()
}

// SendCampaign delivers the campaign's first step to every PENDING prospect
// with a valid address and records the results.
//
// Preconditions are checked in order and fail without side effects:
// Unauthorized, NotFound, InvalidState, NoSequence, NoValidRecipients.
// A concurrent send of the same campaign fails with SendInProgress.
// Results are recorded even when ctx is cancelled mid-batch.
func (s *Service) SendCampaign(ctx context.Context, req SendRequest) (_ *SendResult, err error) {
	started := time.Now()
	dispatched := false
	defer func() {
		result := "ok"
		if err != nil {
			result = string(KindOf(err))
		}
		s.metrics.send(result, started, dispatched)
	}()

	if strings.TrimSpace(req.User.ID) == "" {
		return nil, errUnauthorized
	}
	log := s.log.With(slog.String("campaign_id", req.CampaignID.String()), slog.String("user_id", req.User.ID))

	snap, err := s.checkedSnapshot(ctx, req)
	if err != nil {
		return nil, err
	}

	ttl := s.lockTTL + s.dispatcher.Budget(len(snap.Pending))
	lease, err := s.locker.TryAcquire(ctx, sendLockKey(req.CampaignID), ttl)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return nil, errSendInProgress
		}
		return nil, internalError(err)
	}
	defer func() {
		if rerr := lease.Release(context.WithoutCancel(ctx)); rerr != nil {
			log.WarnContext(ctx, "send lock release failed", slog.String("error", rerr.Error()))
		}
	}()

	// Reload under the lock: a send that finished between the first read and
	// the lock has already moved its prospects out of PENDING.
	snap, err = s.checkedSnapshot(ctx, req)
	if err != nil {
		return nil, err
	}

	step, _ := FirstStep(snap.Steps)
	msgs, skipped := compose(ctx, log, step, snap.Pending, req.User)
	if len(msgs) == 0 {
		return nil, errNoValidRecipients
	}

	ch := s.selector.ChannelFor(ctx, req.User)
	dispatched = true
	log.InfoContext(ctx, "campaign send started",
		slog.String("channel", ch.Name()), slog.Int("messages", len(msgs)), slog.Int("skipped", skipped))

	bulk := s.dispatcher.SendBulk(ctx, ch, msgs)

	rec := reconciliation(req.CampaignID, msgs, bulk.Outcomes)
	if err := s.store.Reconcile(context.WithoutCancel(ctx), rec); err != nil {
		log.ErrorContext(ctx, "send reconciliation failed",
			slog.Int("sent", bulk.Sent), slog.Int("failed", bulk.Failed), slog.String("error", err.Error()))
		return nil, persistenceError(err)
	}
	if s.stats != nil {
		s.stats.Invalidate(context.WithoutCancel(ctx), req.CampaignID, req.User.ID)
	}

	log.InfoContext(ctx, "campaign send finished",
		slog.Int("sent", bulk.Sent), slog.Int("failed", bulk.Failed), slog.Duration("took", time.Since(started)))

	result := &SendResult{
		Success:  true,
		Sent:     bulk.Sent,
		Failed:   bulk.Failed,
		Total:    len(msgs),
		Skipped:  skipped,
		Message:  fmt.Sprintf("Successfully sent %d emails out of %d total", bulk.Sent, len(msgs)),
		Outcomes: bulk.Outcomes,
	}
	if s.reports != nil {
		url, err := s.reports.Archive(context.WithoutCancel(ctx), SendReport{
			CampaignID:   req.CampaignID,
			CampaignName: snap.Campaign.Name,
			UserID:       req.User.ID,
			StepID:       step.ID,
			Channel:      ch.Name(),
			StartedAt:    started,
			FinishedAt:   time.Now(),
			Sent:         bulk.Sent,
			Failed:       bulk.Failed,
			Skipped:      skipped,
			Outcomes:     bulk.Outcomes,
		})
		if err != nil {
			log.WarnContext(ctx, "send report archive failed", slog.String("error", err.Error()))
		} else {
			result.ReportURL = url
		}
	}
	return result, nil
}

// checkedSnapshot loads the campaign and applies every precondition after
// ownership, in order.
func (s *Service) checkedSnapshot(ctx context.Context, req SendRequest) (*SendSnapshot, error) {
	snap, err := s.store.SendSnapshot(ctx, req.CampaignID, req.User.ID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, errCampaignNotFound
		}
		return nil, internalError(err)
	}

	switch {
	case !snap.Campaign.Status.Sendable():
		return nil, errNotSendable
	case len(snap.Steps) == 0:
		return nil, errNoSequence
	case !hasValidRecipient(snap.Pending):
		return nil, errNoValidRecipients
	}
	return snap, nil
}

// reconciliation zips outcomes to messages by position. Only successful
// messages advance their prospect and produce an email_sent interaction.
func reconciliation(campaignID uuid.UUID, msgs []Message, outcomes []Outcome) Reconciliation {
	rec := Reconciliation{CampaignID: campaignID}
	for i, msg := range msgs {
		if i >= len(outcomes) || !outcomes[i].Success {
			continue
		}
		rec.Contacted = append(rec.Contacted, msg.ProspectID)
		rec.Interactions = append(rec.Interactions, Interaction{
			ID:         uuid.New(),
			ProspectID: msg.ProspectID,
			Type:       InteractionEmailSent,
			Content:    msg.Body,
		})
	}
	return rec
}
