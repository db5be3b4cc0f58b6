package model

import "time"

// EmailStatus mirrors the delivery lifecycle of a single outbound email.
type EmailStatus string

const (
	EmailPending    EmailStatus = "pending"
	EmailQueued     EmailStatus = "queued"
	EmailSent       EmailStatus = "sent"
	EmailDelivered  EmailStatus = "delivered"
	EmailOpened     EmailStatus = "opened"
	EmailClicked    EmailStatus = "clicked"
	EmailBounced    EmailStatus = "bounced"
	EmailComplained EmailStatus = "complained"
	EmailFailed     EmailStatus = "failed"
)

// emailRank orders statuses along the delivery lifecycle so provider events
// replayed out of order never downgrade a row. Terminal failure states rank
// above everything.
var emailRank = map[EmailStatus]int{
	EmailPending:    0,
	EmailQueued:     1,
	EmailSent:       2,
	EmailDelivered:  3,
	EmailOpened:     4,
	EmailClicked:    5,
	EmailBounced:    6,
	EmailComplained: 6,
	EmailFailed:     6,
}

// Advances reports whether moving from s to next is a forward transition.
func (s EmailStatus) Advances(next EmailStatus) bool {
	return emailRank[next] > emailRank[s]
}

// Terminal reports whether the email can no longer change state via sending.
func (s EmailStatus) Terminal() bool {
	return s == EmailBounced || s == EmailComplained || s == EmailFailed ||
		s == EmailOpened || s == EmailClicked
}

type Email struct {
	ID         int         `db:"id" json:"id"`
	CampaignID int         `db:"campaign_id" json:"campaign_id"`
	CustomerID int         `db:"customer_id" json:"customer_id"`
	Recipient  string      `db:"recipient" json:"recipient"`
	Subject    string      `db:"subject" json:"subject"`
	Body       string      `db:"body" json:"body"`
	Status     EmailStatus `db:"status" json:"status"`

	ProviderMessageID string `db:"provider_message_id" json:"provider_message_id,omitempty"`
	LastError         string `db:"last_error" json:"last_error,omitempty"`
	RetryCount        int    `db:"retry_count" json:"retry_count"`

	IsResend     bool `db:"is_resend" json:"is_resend"`
	ResendQueued bool `db:"resend_queued" json:"resend_queued"`

	SentAt         *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	FirstOpenedAt  *time.Time `db:"first_opened_at" json:"first_opened_at,omitempty"`
	FirstClickedAt *time.Time `db:"first_clicked_at" json:"first_clicked_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
