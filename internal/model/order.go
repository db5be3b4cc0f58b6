package model

import "time"

// Order is a cached commerce order keyed by (source, external_id).
type Order struct {
	ID                 int       `db:"id" json:"id"`
	ExternalID         string    `db:"external_id" json:"external_id"`
	Source             string    `db:"source" json:"source"`
	CustomerExternalID string    `db:"customer_external_id" json:"customer_external_id"`
	Number             string    `db:"number" json:"number"`
	Status             string    `db:"status" json:"status"`
	Total              float64   `db:"total" json:"total"`
	Currency           string    `db:"currency" json:"currency"`
	PlacedAt           time.Time `db:"placed_at" json:"placed_at"`
	SyncedAt           time.Time `db:"synced_at" json:"synced_at"`
}
