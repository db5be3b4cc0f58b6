package repository

import (
	"database/sql"

	"github.com/unclebandit/outreach-backend/internal/model"
)

type OrderRepositoryInterface interface {
	Upsert(o *model.Order) error
	LatestForCustomer(source, customerExternalID string) (*model.Order, error)
	CountBySource(source string) (int, error)
}

type OrderRepository struct {
	DB *sql.DB
}

const orderColumns = `id, external_id, source, customer_external_id, number, status,
	total, currency, placed_at, synced_at`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.ExternalID, &o.Source, &o.CustomerExternalID, &o.Number, &o.Status,
		&o.Total, &o.Currency, &o.PlacedAt, &o.SyncedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) Upsert(o *model.Order) error {
	query := `
        INSERT INTO orders (external_id, source, customer_external_id, number, status,
            total, currency, placed_at, synced_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
        ON CONFLICT (source, external_id) DO UPDATE
        SET status=EXCLUDED.status, total=EXCLUDED.total, synced_at=NOW()
        RETURNING id
    `
	return r.DB.QueryRow(query,
		o.ExternalID, o.Source, o.CustomerExternalID, o.Number, o.Status,
		o.Total, o.Currency, o.PlacedAt,
	).Scan(&o.ID)
}

func (r *OrderRepository) LatestForCustomer(source, customerExternalID string) (*model.Order, error) {
	o, err := scanOrder(r.DB.QueryRow(
		`SELECT `+orderColumns+` FROM orders
         WHERE source=$1 AND customer_external_id=$2
         ORDER BY placed_at DESC LIMIT 1`,
		source, customerExternalID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func (r *OrderRepository) CountBySource(source string) (int, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM orders WHERE source=$1`, source).Scan(&count)
	return count, err
}

var _ OrderRepositoryInterface = (*OrderRepository)(nil)
