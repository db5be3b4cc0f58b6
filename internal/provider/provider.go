package provider

import "context"

// OutboundEmail is the rendered message handed to a delivery provider.
type OutboundEmail struct {
	From       string
	FromName   string
	To         string
	Subject    string
	HTML       string
	CampaignID int
}

// Sender delivers a single email and returns the provider's message id, which
// later webhook callbacks reference.
type Sender interface {
	Send(ctx context.Context, email OutboundEmail) (string, error)
}
