package outreach

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "DRAFT"
	CampaignActive    CampaignStatus = "ACTIVE"
	CampaignPaused    CampaignStatus = "PAUSED"
	CampaignCompleted CampaignStatus = "COMPLETED"
)

// Valid reports whether s is a known campaign status.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignPaused, CampaignCompleted:
		return true
	}
	return false
}

// Sendable reports whether a campaign in this state may dispatch mail.
func (s CampaignStatus) Sendable() bool {
	return s == CampaignDraft || s == CampaignActive
}

// ProspectStatus tracks a prospect through the outreach funnel.
type ProspectStatus string

const (
	ProspectPending       ProspectStatus = "PENDING"
	ProspectContacted     ProspectStatus = "contacted"
	ProspectReplied       ProspectStatus = "replied"
	ProspectMeetingBooked ProspectStatus = "meeting_booked"
)

// InteractionType labels an audit record.
type InteractionType string

const (
	InteractionEmailSent     InteractionType = "email_sent"
	InteractionEmailOpened   InteractionType = "email_opened"
	InteractionEmailReplied  InteractionType = "email_replied"
	InteractionMeetingBooked InteractionType = "meeting_booked"
)

// User is the authenticated caller.
type User struct {
	ID    string
	Name  string
	Email string
}

type Campaign struct {
	ID          uuid.UUID      `json:"id"`
	UserID      string         `json:"user_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      CampaignStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Step is one templated message of a campaign sequence. Delay is advisory:
// a send always targets the first step.
type Step struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	Order      int       `json:"order"`
	Subject    string    `json:"subject,omitempty"`
	Content    string    `json:"content"`
	DelayDays  int       `json:"delay_days"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Prospect struct {
	ID         uuid.UUID      `json:"id"`
	CampaignID uuid.UUID      `json:"campaign_id"`
	Email      string         `json:"email"`
	Name       string         `json:"name,omitempty"`
	Company    string         `json:"company,omitempty"`
	Title      string         `json:"title,omitempty"`
	Status     ProspectStatus `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Interaction is an append-only audit record for a prospect.
type Interaction struct {
	ID         uuid.UUID       `json:"id"`
	ProspectID uuid.UUID       `json:"prospect_id"`
	Type       InteractionType `json:"type"`
	Content    string          `json:"content"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SendSnapshot is everything a send needs, read in one go: the campaign,
// its steps ordered by Order, and its PENDING prospects.
type SendSnapshot struct {
	Campaign Campaign
	Steps    []Step
	Pending  []Prospect
}

// Reconciliation is the write set of one send, applied atomically.
type Reconciliation struct {
	CampaignID   uuid.UUID
	Contacted    []uuid.UUID
	Interactions []Interaction
}

// SendRequest identifies the campaign to send and who is asking.
type SendRequest struct {
	CampaignID uuid.UUID
	User       User
}

// SendResult summarises a finished send.
type SendResult struct {
	Success   bool      `json:"success"`
	Sent      int       `json:"sent"`
	Failed    int       `json:"failed"`
	Total     int       `json:"total"`
	Skipped   int       `json:"skipped"`
	Message   string    `json:"message"`
	Outcomes  []Outcome `json:"outcomes"`
	ReportURL string    `json:"report_url,omitempty"`
}
