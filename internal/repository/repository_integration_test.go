//go:build integration

package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/outreach/internal/outreach"
	"github.com/dmitrymomot/outreach/internal/repository"
	"github.com/dmitrymomot/outreach/pkg/db"
	"github.com/dmitrymomot/outreach/pkg/logger"
)

func setup(t *testing.T) *repository.Repository {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, db.Config{URL: url, MaxConns: 4, RetryAttempts: 1}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool, repository.Migrations(), "schema_migrations", logger.NewNop()))
	return repository.New(pool)
}

func TestRepository_SendLifecycle(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()
	userID := "user-" + uuid.NewString()

	detail, err := repo.CreateCampaign(ctx, repository.NewCampaign{
		UserID: userID,
		Name:   "Q1 Outreach",
		Steps:  []repository.NewStep{{Order: 0, Content: "Hi [name]"}},
		Prospects: []repository.NewProspect{
			{Email: "a@x.com", Name: "Alice"},
			{Email: "b@x.com", Name: "Bob"},
			{Email: "A@x.com", Name: "Alice again"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, outreach.CampaignDraft, detail.Status)
	assert.Equal(t, 2, detail.ProspectCount)

	_, err = repo.SendSnapshot(ctx, detail.ID, "someone-else")
	require.ErrorIs(t, err, outreach.ErrRecordNotFound)

	snap, err := repo.SendSnapshot(ctx, detail.ID, userID)
	require.NoError(t, err)
	require.Len(t, snap.Steps, 1)
	require.Len(t, snap.Pending, 2)
	assert.Equal(t, "a@x.com", snap.Pending[0].Email)
	assert.Equal(t, "b@x.com", snap.Pending[1].Email)

	alice := snap.Pending[0].ID
	require.NoError(t, repo.Reconcile(ctx, outreach.Reconciliation{
		CampaignID: detail.ID,
		Contacted:  []uuid.UUID{alice},
		Interactions: []outreach.Interaction{
			{ProspectID: alice, Type: outreach.InteractionEmailSent, Content: "Hi Alice"},
		},
	}))

	// A second reconcile of the same prospect is a no-op.
	require.NoError(t, repo.Reconcile(ctx, outreach.Reconciliation{
		CampaignID: detail.ID,
		Contacted:  []uuid.UUID{alice},
		Interactions: []outreach.Interaction{
			{ProspectID: alice, Type: outreach.InteractionEmailSent, Content: "Hi Alice"},
		},
	}))

	c, e, err := repo.CampaignEngagement(ctx, detail.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, outreach.CampaignActive, c.Status)
	assert.Equal(t, 2, e.TotalProspects)
	assert.Equal(t, 1, e.EmailsSent)

	snap, err = repo.SendSnapshot(ctx, detail.ID, userID)
	require.NoError(t, err)
	require.Len(t, snap.Pending, 1)
	assert.Equal(t, "b@x.com", snap.Pending[0].Email)

	bob := snap.Pending[0].ID
	require.NoError(t, repo.Reconcile(ctx, outreach.Reconciliation{CampaignID: detail.ID, Contacted: []uuid.UUID{bob}}))

	n, err := repo.CompleteExhaustedCampaigns(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	got, err := repo.GetCampaign(ctx, detail.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, outreach.CampaignCompleted, got.Status)

	// Only duplicates: the campaign stays completed.
	added, err := repo.AddProspects(ctx, detail.ID, userID, []repository.NewProspect{{Email: "b@x.com"}})
	require.NoError(t, err)
	assert.Zero(t, added)
	got, err = repo.GetCampaign(ctx, detail.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, outreach.CampaignCompleted, got.Status)

	// A new prospect reopens it for sending.
	added, err = repo.AddProspects(ctx, detail.ID, userID, []repository.NewProspect{{Email: "c@x.com", Name: "Carol"}})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	got, err = repo.GetCampaign(ctx, detail.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, outreach.CampaignActive, got.Status)

	snap, err = repo.SendSnapshot(ctx, detail.ID, userID)
	require.NoError(t, err)
	require.Len(t, snap.Pending, 1)
	assert.Equal(t, "c@x.com", snap.Pending[0].Email)
}

func TestRepository_CampaignCRUD(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()
	userID := "user-" + uuid.NewString()

	detail, err := repo.CreateCampaign(ctx, repository.NewCampaign{UserID: userID, Name: "  Launch  "})
	require.NoError(t, err)
	assert.Equal(t, "Launch", detail.Name)

	list, err := repo.ListCampaigns(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Zero(t, list[0].StepCount)

	name := "Relaunch"
	status := outreach.CampaignPaused
	updated, err := repo.UpdateCampaign(ctx, detail.ID, userID, repository.CampaignPatch{Name: &name, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "Relaunch", updated.Name)
	assert.Equal(t, outreach.CampaignPaused, updated.Status)

	step, err := repo.CreateStep(ctx, detail.ID, userID, repository.NewStep{Order: 0, Content: "Hello"})
	require.NoError(t, err)

	_, err = repo.CreateStep(ctx, detail.ID, userID, repository.NewStep{Order: 0, Content: "Dup"})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	subject := "Hi [firstName]"
	step, err = repo.UpdateStep(ctx, detail.ID, step.ID, userID, repository.StepPatch{Subject: &subject})
	require.NoError(t, err)
	assert.Equal(t, subject, step.Subject)
	assert.Equal(t, "Hello", step.Content)

	_, err = repo.UpdateStep(ctx, detail.ID, step.ID, "intruder", repository.StepPatch{Subject: &subject})
	require.ErrorIs(t, err, outreach.ErrRecordNotFound)

	added, err := repo.AddProspects(ctx, detail.ID, userID, []repository.NewProspect{{Email: "c@x.com"}, {Email: "c@x.com"}})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	prospects, err := repo.ListProspects(ctx, detail.ID, userID)
	require.NoError(t, err)
	require.Len(t, prospects, 1)
	assert.Equal(t, outreach.ProspectPending, prospects[0].Status)

	require.NoError(t, repo.DeleteStep(ctx, detail.ID, step.ID, userID))
	require.ErrorIs(t, repo.DeleteStep(ctx, detail.ID, step.ID, userID), outreach.ErrRecordNotFound)

	require.NoError(t, repo.DeleteCampaign(ctx, detail.ID, userID))
	_, err = repo.GetCampaign(ctx, detail.ID, userID)
	require.ErrorIs(t, err, outreach.ErrRecordNotFound)
}

func TestRepository_Mailbox(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()
	userID := "user-" + uuid.NewString()

	creds, err := repo.MailboxCredentials(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, creds)

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, repo.SaveMailbox(ctx, userID, outreach.MailboxCredentials{
		Provider: "google", Email: "jane@acme.io", AccessToken: "at", RefreshToken: "rt", Expiry: expiry,
	}))

	creds, err = repo.MailboxCredentials(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.True(t, creds.Usable())
	assert.True(t, expiry.Equal(creds.Expiry))

	require.NoError(t, repo.DeleteMailbox(ctx, userID))
	creds, err = repo.MailboxCredentials(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, creds)
}
