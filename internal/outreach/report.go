package outreach

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/outreach/pkg/storage"
)

// SendReport is the archived record of one finished send.
type SendReport struct {
	CampaignID   uuid.UUID `json:"campaign_id"`
	CampaignName string    `json:"campaign_name"`
	UserID       string    `json:"user_id"`
	StepID       uuid.UUID `json:"step_id"`
	Channel      string    `json:"channel"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Sent         int       `json:"sent"`
	Failed       int       `json:"failed"`
	Skipped      int       `json:"skipped"`
	Outcomes     []Outcome `json:"outcomes"`
}

// ReportArchive stores send reports and returns where to fetch them.
type ReportArchive interface {
	Archive(ctx context.Context, report SendReport) (url string, err error)
}

// StorageArchive writes reports as JSON objects keyed by campaign and
// finish time, and answers with a pre-signed download URL.
type StorageArchive struct {
	store  storage.Storage
	expiry time.Duration
}

// NewStorageArchive creates a StorageArchive. A non-positive expiry uses
// the store's default.
func NewStorageArchive(store storage.Storage, expiry time.Duration) *StorageArchive {
	return &StorageArchive{store: store, expiry: expiry}
}

// Archive implements ReportArchive.
func (a *StorageArchive) Archive(ctx context.Context, report SendReport) (string, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("outreach: encode report: %w", err)
	}
	obj, err := a.store.Put(ctx, reportKey(report), data, "application/json")
	if err != nil {
		return "", err
	}
	return a.store.SignedURL(ctx, obj.Key, a.expiry)
}

func reportKey(r SendReport) string {
	return fmt.Sprintf("send-reports/%s/%s.json", r.CampaignID, r.FinishedAt.UTC().Format("20060102T150405.000000000Z"))
}
