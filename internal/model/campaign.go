package model

import "time"

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignSending   CampaignStatus = "sending"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignCancelled CampaignStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s CampaignStatus) Terminal() bool {
	return s == CampaignCompleted || s == CampaignCancelled
}

type Campaign struct {
	ID          int            `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	Segment     string         `db:"segment" json:"segment"`
	TemplateID  int            `db:"template_id" json:"template_id"`
	Subject     string         `db:"subject" json:"subject"`
	Status      CampaignStatus `db:"status" json:"status"`

	RateLimitPerHour int  `db:"rate_limit_per_hour" json:"rate_limit_per_hour"`
	DryRun           bool `db:"dry_run" json:"dry_run"`

	ResendEnabled    bool   `db:"resend_enabled" json:"resend_enabled"`
	ResendDelayHours int    `db:"resend_delay_hours" json:"resend_delay_hours"`
	ResendSubject    string `db:"resend_subject" json:"resend_subject"`

	SentCount       int `db:"sent_count" json:"sent_count"`
	DeliveredCount  int `db:"delivered_count" json:"delivered_count"`
	OpenedCount     int `db:"opened_count" json:"opened_count"`
	ClickedCount    int `db:"clicked_count" json:"clicked_count"`
	BouncedCount    int `db:"bounced_count" json:"bounced_count"`
	ComplainedCount int `db:"complained_count" json:"complained_count"`
	FailedCount     int `db:"failed_count" json:"failed_count"`

	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	StartedAt   *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// CanTransitionTo enforces the campaign status machine.
func (c *Campaign) CanTransitionTo(next CampaignStatus) bool {
	switch next {
	case CampaignScheduled:
		return c.Status == CampaignDraft
	case CampaignSending:
		return c.Status == CampaignDraft || c.Status == CampaignScheduled || c.Status == CampaignPaused
	case CampaignPaused:
		return c.Status == CampaignSending
	case CampaignCompleted:
		return c.Status == CampaignSending
	case CampaignCancelled:
		return !c.Status.Terminal()
	}
	return false
}
