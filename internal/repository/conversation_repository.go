package repository

import (
	"database/sql"
	"fmt"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
)

type ConversationRepositoryInterface interface {
	Create(c *model.Conversation) error
	GetByID(id int) (*model.Conversation, error)
	List(offset, limit int, status string) ([]*model.Conversation, int, error)
	SetStatus(id int, status string) error
	AppendMessage(m *model.Message) error
	ListMessages(conversationID int) ([]*model.Message, error)
}

type ConversationRepository struct {
	DB *sql.DB
}

func (r *ConversationRepository) Create(c *model.Conversation) error {
	if c.Status == "" {
		c.Status = "open"
	}
	return r.DB.QueryRow(
		`INSERT INTO conversations (visitor_id, status, metadata) VALUES ($1, $2, $3)
         RETURNING id, created_at`,
		c.VisitorID, c.Status, nullableJSON(c.Metadata),
	).Scan(&c.ID, &c.CreatedAt)
}

func (r *ConversationRepository) GetByID(id int) (*model.Conversation, error) {
	var c model.Conversation
	err := r.DB.QueryRow(
		`SELECT id, visitor_id, status, metadata, created_at, updated_at FROM conversations WHERE id=$1`, id,
	).Scan(&c.ID, &c.VisitorID, &c.Status, &c.Metadata, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrConversationNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ConversationRepository) List(offset, limit int, status string) ([]*model.Conversation, int, error) {
	countQuery := `SELECT COUNT(*) FROM conversations`
	query := `SELECT id, visitor_id, status, metadata, created_at, updated_at FROM conversations`
	args := []any{}
	argPos := 1
	if status != "" {
		countQuery += ` WHERE status=$1`
		query += ` WHERE status=$1`
		args = append(args, status)
		argPos++
	}

	var total int
	if err := r.DB.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY id DESC LIMIT $%d OFFSET $%d`, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	conversations := []*model.Conversation{}
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.ID, &c.VisitorID, &c.Status, &c.Metadata, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		conversations = append(conversations, &c)
	}
	return conversations, total, rows.Err()
}

func (r *ConversationRepository) SetStatus(id int, status string) error {
	_, err := r.DB.Exec(
		`UPDATE conversations SET status=$1, updated_at=NOW() WHERE id=$2`, status, id,
	)
	return err
}

func (r *ConversationRepository) AppendMessage(m *model.Message) error {
	return r.DB.QueryRow(
		`INSERT INTO messages (conversation_id, sender_type, content, metadata)
         VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		m.ConversationID, m.SenderType, m.Content, nullableJSON(m.Metadata),
	).Scan(&m.ID, &m.CreatedAt)
}

func (r *ConversationRepository) ListMessages(conversationID int) ([]*model.Message, error) {
	rows, err := r.DB.Query(
		`SELECT id, conversation_id, sender_type, content, metadata, created_at
         FROM messages WHERE conversation_id=$1 ORDER BY id`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderType, &m.Content, &m.Metadata, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

var _ ConversationRepositoryInterface = (*ConversationRepository)(nil)
