package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/outreach/internal/outreach"
	"github.com/dmitrymomot/outreach/internal/repository"
	"github.com/dmitrymomot/outreach/internal/server"
	"github.com/dmitrymomot/outreach/middlewares"
)

var secret = []byte("handlers-test-secret-0123456789ab")

const ownerID = "user-1"

func token(t *testing.T, sub string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"name":  "Jane Doe",
		"email": "jane@acme.io",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	return s
}

func newTestServer(h ...server.Handler) *server.Server {
	return server.New(server.WithHandlers(h...))
}

type response struct {
	code int
	body map[string]any
}

// call performs a request as sub; an empty sub sends no token.
func call(t *testing.T, s *server.Server, method, target, sub, body string) response {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if sub != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, sub))
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	out := response{code: rec.Code}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out.body), rec.Body.String())
	}
	return out
}

func auth() server.Middleware { return middlewares.JWT(secret) }

// fakeStore is an in-memory CampaignStore and MailboxStore scoped by owner.
type fakeStore struct {
	mu        sync.Mutex
	campaigns map[uuid.UUID]*repository.CampaignDetail
	prospects map[uuid.UUID][]outreach.Prospect
	mailboxes map[string]outreach.MailboxCredentials
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		campaigns: map[uuid.UUID]*repository.CampaignDetail{},
		prospects: map[uuid.UUID][]outreach.Prospect{},
		mailboxes: map[string]outreach.MailboxCredentials{},
	}
}

func (f *fakeStore) seed(userID, name string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.campaigns[id] = &repository.CampaignDetail{
		Campaign: outreach.Campaign{ID: id, UserID: userID, Name: name, Status: outreach.CampaignDraft},
	}
	return id
}

func (f *fakeStore) owned(id uuid.UUID, userID string) (*repository.CampaignDetail, error) {
	c, ok := f.campaigns[id]
	if !ok || c.UserID != userID {
		return nil, outreach.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeStore) ListCampaigns(_ context.Context, userID string) ([]repository.CampaignSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.CampaignSummary
	for _, c := range f.campaigns {
		if c.UserID == userID {
			out = append(out, repository.CampaignSummary{Campaign: c.Campaign, StepCount: len(c.Steps), ProspectCount: c.ProspectCount})
		}
	}
	return out, nil
}

func (f *fakeStore) CreateCampaign(_ context.Context, in repository.NewCampaign) (*repository.CampaignDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	d := &repository.CampaignDetail{
		Campaign:      outreach.Campaign{ID: id, UserID: in.UserID, Name: in.Name, Description: in.Description, Status: outreach.CampaignDraft},
		ProspectCount: len(in.Prospects),
	}
	for _, s := range in.Steps {
		d.Steps = append(d.Steps, outreach.Step{ID: uuid.New(), CampaignID: id, Order: s.Order, Subject: s.Subject, Content: s.Content, DelayDays: s.DelayDays})
	}
	f.campaigns[id] = d
	return d, nil
}

func (f *fakeStore) GetCampaign(_ context.Context, id uuid.UUID, userID string) (*repository.CampaignDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owned(id, userID)
}

func (f *fakeStore) UpdateCampaign(_ context.Context, id uuid.UUID, userID string, patch repository.CampaignPatch) (*outreach.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.owned(id, userID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	campaign := c.Campaign
	return &campaign, nil
}

func (f *fakeStore) DeleteCampaign(_ context.Context, id uuid.UUID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.owned(id, userID); err != nil {
		return err
	}
	delete(f.campaigns, id)
	return nil
}

func (f *fakeStore) ListSteps(_ context.Context, id uuid.UUID, userID string) ([]outreach.Step, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.owned(id, userID)
	if err != nil {
		return nil, err
	}
	return c.Steps, nil
}

func (f *fakeStore) CreateStep(_ context.Context, id uuid.UUID, userID string, in repository.NewStep) (*outreach.Step, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.owned(id, userID)
	if err != nil {
		return nil, err
	}
	for _, s := range c.Steps {
		if s.Order == in.Order {
			return nil, repository.ErrDuplicate
		}
	}
	step := outreach.Step{ID: uuid.New(), CampaignID: id, Order: in.Order, Subject: in.Subject, Content: in.Content, DelayDays: in.DelayDays}
	c.Steps = append(c.Steps, step)
	return &step, nil
}

func (f *fakeStore) UpdateStep(_ context.Context, id, stepID uuid.UUID, userID string, patch repository.StepPatch) (*outreach.Step, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.owned(id, userID)
	if err != nil {
		return nil, err
	}
	for i := range c.Steps {
		if c.Steps[i].ID != stepID {
			continue
		}
		if patch.Content != nil {
			c.Steps[i].Content = *patch.Content
		}
		if patch.Subject != nil {
			c.Steps[i].Subject = *patch.Subject
		}
		step := c.Steps[i]
		return &step, nil
	}
	return nil, outreach.ErrRecordNotFound
}

func (f *fakeStore) DeleteStep(_ context.Context, id, stepID uuid.UUID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.owned(id, userID)
	if err != nil {
		return err
	}
	for i := range c.Steps {
		if c.Steps[i].ID == stepID {
			c.Steps = append(c.Steps[:i], c.Steps[i+1:]...)
			return nil
		}
	}
	return outreach.ErrRecordNotFound
}

func (f *fakeStore) ListProspects(_ context.Context, id uuid.UUID, userID string) ([]outreach.Prospect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.owned(id, userID); err != nil {
		return nil, err
	}
	return f.prospects[id], nil
}

func (f *fakeStore) AddProspects(_ context.Context, id uuid.UUID, userID string, in []repository.NewProspect) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.owned(id, userID)
	if err != nil {
		return 0, err
	}
	seen := map[string]bool{}
	for _, p := range f.prospects[id] {
		seen[strings.ToLower(p.Email)] = true
	}
	added := 0
	for _, p := range in {
		key := strings.ToLower(p.Email)
		if seen[key] {
			continue
		}
		seen[key] = true
		f.prospects[id] = append(f.prospects[id], outreach.Prospect{
			ID: uuid.New(), CampaignID: id, Email: p.Email, Name: p.Name, Status: outreach.ProspectPending,
		})
		added++
	}
	c.ProspectCount += added
	return added, nil
}

func (f *fakeStore) SaveMailbox(_ context.Context, userID string, creds outreach.MailboxCredentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mailboxes[userID] = creds
	return nil
}

func (f *fakeStore) DeleteMailbox(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.mailboxes, userID)
	return nil
}

// fakeStats records invalidations and serves fixed stats for owned campaigns.
type fakeStats struct {
	store *fakeStore

	mu          sync.Mutex
	invalidated []uuid.UUID
}

func (f *fakeStats) Stats(_ context.Context, id uuid.UUID, userID string) (*outreach.Stats, error) {
	if userID == "" {
		return nil, &outreach.Error{Kind: outreach.KindUnauthorized, Message: "Unauthorized"}
	}
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	c, err := f.store.owned(id, userID)
	if err != nil {
		return nil, &outreach.Error{Kind: outreach.KindNotFound, Message: "Campaign not found"}
	}
	return &outreach.Stats{
		CampaignID:   id,
		CampaignName: c.Name,
		Status:       c.Status,
		Engagement:   outreach.Engagement{TotalProspects: c.ProspectCount, EmailsSent: 4, EmailsReplied: 1},
		Rates:        outreach.ComputeRates(outreach.Engagement{EmailsSent: 4, EmailsReplied: 1}),
	}, nil
}

func (f *fakeStats) Invalidate(_ context.Context, id uuid.UUID, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, id)
}

func (f *fakeStats) invalidations() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.invalidated...)
}
