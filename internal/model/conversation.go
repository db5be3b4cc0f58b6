package model

import (
	"encoding/json"
	"time"
)

// SenderType identifies who produced a chat message.
type SenderType string

const (
	SenderVisitor SenderType = "visitor"
	SenderAI      SenderType = "ai"
	SenderAgent   SenderType = "agent"
)

type Conversation struct {
	ID        int             `db:"id" json:"id"`
	VisitorID string          `db:"visitor_id" json:"visitor_id"`
	Status    string          `db:"status" json:"status"` // open, closed
	Metadata  json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time      `db:"updated_at" json:"updated_at,omitempty"`
}

type Message struct {
	ID             int             `db:"id" json:"id"`
	ConversationID int             `db:"conversation_id" json:"conversation_id"`
	SenderType     SenderType      `db:"sender_type" json:"sender_type"`
	Content        string          `db:"content" json:"content"`
	Metadata       json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
