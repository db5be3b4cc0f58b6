package model

import "time"

// WebhookEventType enumerates the provider delivery-state callbacks we accept.
type WebhookEventType string

const (
	WebhookDelivered  WebhookEventType = "email.delivered"
	WebhookOpened     WebhookEventType = "email.opened"
	WebhookClicked    WebhookEventType = "email.clicked"
	WebhookBounced    WebhookEventType = "email.bounced"
	WebhookComplained WebhookEventType = "email.complained"
)

// EmailStatus maps a provider event onto the email status machine.
func (t WebhookEventType) EmailStatus() (EmailStatus, bool) {
	switch t {
	case WebhookDelivered:
		return EmailDelivered, true
	case WebhookOpened:
		return EmailOpened, true
	case WebhookClicked:
		return EmailClicked, true
	case WebhookBounced:
		return EmailBounced, true
	case WebhookComplained:
		return EmailComplained, true
	}
	return "", false
}

// WebhookEvent records a processed provider callback for replay protection.
// EventID carries the provider's unique event id.
type WebhookEvent struct {
	ID                int              `db:"id" json:"id"`
	EventID           string           `db:"event_id" json:"event_id"`
	EventType         WebhookEventType `db:"event_type" json:"event_type"`
	ProviderMessageID string           `db:"provider_message_id" json:"provider_message_id"`
	ReceivedAt        time.Time        `db:"received_at" json:"received_at"`
}
