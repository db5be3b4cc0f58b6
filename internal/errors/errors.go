package appErrors

import (
	"errors"
	"fmt"
)

// Sentinels for the common not-found cases.
var (
	ErrTemplateNotFound     = errors.New("template not found")
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrUnknownSegment       = errors.New("unknown segment")
)

// ErrCampaignNotFound carries the missing campaign id.
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrInvalidTransition reports a rejected campaign status change.
type ErrInvalidTransition struct {
	CampaignID int
	From, To   string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("campaign %d cannot move from %s to %s", e.CampaignID, e.From, e.To)
}

func NewInvalidTransition(id int, from, to string) error {
	return &ErrInvalidTransition{CampaignID: id, From: from, To: to}
}

// IsNotFound reports whether err is any of the not-found errors.
func IsNotFound(err error) bool {
	var cnf *ErrCampaignNotFound
	if errors.As(err, &cnf) {
		return true
	}
	return errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrConversationNotFound)
}
