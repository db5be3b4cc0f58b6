package repository

import (
	"database/sql"

	"github.com/unclebandit/outreach-backend/internal/model"
)

type WebhookEventRepositoryInterface interface {
	// Record inserts the event id and reports whether it was new. A false
	// return means the provider replayed an event we already processed.
	Record(e *model.WebhookEvent) (bool, error)
}

type WebhookEventRepository struct {
	DB *sql.DB
}

func (r *WebhookEventRepository) Record(e *model.WebhookEvent) (bool, error) {
	err := r.DB.QueryRow(`
        INSERT INTO webhook_events (event_id, event_type, provider_message_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (event_id) DO NOTHING
        RETURNING id, received_at
    `, e.EventID, e.EventType, e.ProviderMessageID).Scan(&e.ID, &e.ReceivedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

var _ WebhookEventRepositoryInterface = (*WebhookEventRepository)(nil)
