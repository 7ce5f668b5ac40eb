package outreach_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/outreach/internal/outreach"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory Store with a single campaign.
type memStore struct {
	mu           sync.Mutex
	campaign     outreach.Campaign
	steps        []outreach.Step
	prospects    []outreach.Prospect
	interactions []outreach.Interaction
	reconciled   int
	loadErr      error
	reconcileErr error
	onLoad       func()
}

func newMemStore(userID string, status outreach.CampaignStatus) *memStore {
	return &memStore{
		campaign: outreach.Campaign{
			ID:     uuid.New(),
			UserID: userID,
			Name:   "Q1 Outreach",
			Status: status,
		},
	}
}

func (s *memStore) addStep(order int, subject, content string) {
	s.steps = append(s.steps, outreach.Step{
		ID:         uuid.New(),
		CampaignID: s.campaign.ID,
		Order:      order,
		Subject:    subject,
		Content:    content,
	})
}

func (s *memStore) addProspect(email, name, company string) uuid.UUID {
	p := outreach.Prospect{
		ID:         uuid.New(),
		CampaignID: s.campaign.ID,
		Email:      email,
		Name:       name,
		Company:    company,
		Status:     outreach.ProspectPending,
	}
	s.prospects = append(s.prospects, p)
	return p.ID
}

func (s *memStore) SendSnapshot(_ context.Context, campaignID uuid.UUID, userID string) (*outreach.SendSnapshot, error) {
	if s.onLoad != nil {
		s.onLoad()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if campaignID != s.campaign.ID || userID != s.campaign.UserID {
		return nil, outreach.ErrRecordNotFound
	}

	snap := &outreach.SendSnapshot{
		Campaign: s.campaign,
		Steps:    append([]outreach.Step(nil), s.steps...),
	}
	for _, p := range s.prospects {
		if p.Status == outreach.ProspectPending {
			snap.Pending = append(snap.Pending, p)
		}
	}
	return snap, nil
}

func (s *memStore) Reconcile(ctx context.Context, rec outreach.Reconciliation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if s.reconcileErr != nil {
		return s.reconcileErr
	}

	s.reconciled++
	s.campaign.Status = outreach.CampaignActive
	contacted := make(map[uuid.UUID]bool, len(rec.Contacted))
	for _, id := range rec.Contacted {
		contacted[id] = true
	}
	for i := range s.prospects {
		if contacted[s.prospects[i].ID] && s.prospects[i].Status == outreach.ProspectPending {
			s.prospects[i].Status = outreach.ProspectContacted
		}
	}
	s.interactions = append(s.interactions, rec.Interactions...)
	return nil
}

func (s *memStore) statusOf(id uuid.UUID) outreach.ProspectStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.prospects {
		if p.ID == id {
			return p.Status
		}
	}
	return ""
}

func (s *memStore) countStatus(st outreach.ProspectStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.prospects {
		if p.Status == st {
			n++
		}
	}
	return n
}

// scriptedChannel records deliveries and fails the listed 1-based positions.
type scriptedChannel struct {
	mu        sync.Mutex
	name      string
	failAt    map[int]bool
	panicAt   map[int]bool
	delivered []outreach.Message
	onDeliver func(n int)
}

func newScriptedChannel(failAt ...int) *scriptedChannel {
	c := &scriptedChannel{name: "fake", failAt: map[int]bool{}, panicAt: map[int]bool{}}
	for _, n := range failAt {
		c.failAt[n] = true
	}
	return c
}

func (c *scriptedChannel) Name() string { return c.name }

func (c *scriptedChannel) Deliver(_ context.Context, msg outreach.Message) outreach.Outcome {
	c.mu.Lock()
	c.delivered = append(c.delivered, msg)
	n := len(c.delivered)
	hook := c.onDeliver
	c.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if c.panicAt[n] {
		panic("transport exploded")
	}
	out := outreach.Outcome{ProspectID: msg.ProspectID, To: msg.To, Channel: c.name, Success: !c.failAt[n]}
	if !out.Success {
		out.Reason = "rejected"
	}
	return out
}

func (c *scriptedChannel) messages() []outreach.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]outreach.Message(nil), c.delivered...)
}

type fixedSelector struct {
	ch    outreach.Channel
	calls int
}

func (s *fixedSelector) ChannelFor(context.Context, outreach.User) outreach.Channel {
	s.calls++
	return s.ch
}

type recordingInvalidator struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, campaignID uuid.UUID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, campaignID.String()+":"+userID)
}
