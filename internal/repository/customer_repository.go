package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/unclebandit/outreach-backend/internal/model"
)

// SegmentThresholds carries the tunable cutoffs for the named segments.
type SegmentThresholds struct {
	VIPSpend  float64
	DormantAt time.Time // last order before this => dormant
	NewSince  time.Time // first order after this => new
}

type CustomerRepositoryInterface interface {
	GetByID(id int) (*model.Customer, error)
	GetByEmail(email string) (*model.Customer, error)
	Upsert(c *model.Customer) error
	ListSegment(segment model.Segment, t SegmentThresholds, offset, limit int) ([]*model.Customer, error)
	CountSegment(segment model.Segment, t SegmentThresholds) (int, error)
	RefreshAggregates() error
}

type CustomerRepository struct {
	DB *sql.DB
}

const customerColumns = `id, external_id, source, email, first_name, last_name, phone, city,
	total_orders, total_spent, unsubscribed, first_order_at, last_order_at, synced_at, created_at`

func scanCustomer(row interface{ Scan(...any) error }) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(
		&c.ID, &c.ExternalID, &c.Source, &c.Email, &c.FirstName, &c.LastName, &c.Phone, &c.City,
		&c.TotalOrders, &c.TotalSpent, &c.Unsubscribed, &c.FirstOrderAt, &c.LastOrderAt,
		&c.SyncedAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) GetByID(id int) (*model.Customer, error) {
	c, err := scanCustomer(r.DB.QueryRow(
		`SELECT `+customerColumns+` FROM customers WHERE id=$1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *CustomerRepository) GetByEmail(email string) (*model.Customer, error) {
	c, err := scanCustomer(r.DB.QueryRow(
		`SELECT `+customerColumns+` FROM customers WHERE email=$1 ORDER BY id LIMIT 1`, email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// Upsert mirrors an external customer row into the cache, keyed by
// (source, external_id).
func (r *CustomerRepository) Upsert(c *model.Customer) error {
	query := `
        INSERT INTO customers (external_id, source, email, first_name, last_name, phone, city, synced_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        ON CONFLICT (source, external_id) DO UPDATE
        SET email=EXCLUDED.email, first_name=EXCLUDED.first_name, last_name=EXCLUDED.last_name,
            phone=EXCLUDED.phone, city=EXCLUDED.city, synced_at=NOW()
        RETURNING id
    `
	return r.DB.QueryRow(query,
		c.ExternalID, c.Source, c.Email, c.FirstName, c.LastName, c.Phone, c.City,
	).Scan(&c.ID)
}

// segmentClause returns the WHERE fragment for a segment starting at argPos.
// Recipients always need an email and must not have unsubscribed.
func segmentClause(segment model.Segment, argPos int) (string, int, bool) {
	base := ` AND email <> '' AND unsubscribed=FALSE`
	switch segment {
	case model.SegmentAll:
		return base, 0, true
	case model.SegmentVIP:
		return base + fmt.Sprintf(" AND total_spent >= $%d", argPos), 1, true
	case model.SegmentDormant:
		return base + fmt.Sprintf(" AND last_order_at IS NOT NULL AND last_order_at < $%d", argPos), 1, true
	case model.SegmentNew:
		return base + fmt.Sprintf(" AND first_order_at IS NOT NULL AND first_order_at >= $%d", argPos), 1, true
	}
	return "", 0, false
}

func segmentArg(segment model.Segment, t SegmentThresholds) any {
	switch segment {
	case model.SegmentVIP:
		return t.VIPSpend
	case model.SegmentDormant:
		return t.DormantAt
	case model.SegmentNew:
		return t.NewSince
	}
	return nil
}

func (r *CustomerRepository) ListSegment(segment model.Segment, t SegmentThresholds, offset, limit int) ([]*model.Customer, error) {
	clause, nargs, ok := segmentClause(segment, 1)
	if !ok {
		return nil, fmt.Errorf("unknown segment %q", segment)
	}

	args := []any{}
	if nargs > 0 {
		args = append(args, segmentArg(segment, t))
	}
	query := fmt.Sprintf(
		`SELECT %s FROM customers WHERE 1=1%s ORDER BY id LIMIT $%d OFFSET $%d`,
		customerColumns, clause, len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []*model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) CountSegment(segment model.Segment, t SegmentThresholds) (int, error) {
	clause, nargs, ok := segmentClause(segment, 1)
	if !ok {
		return 0, fmt.Errorf("unknown segment %q", segment)
	}

	args := []any{}
	if nargs > 0 {
		args = append(args, segmentArg(segment, t))
	}

	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM customers WHERE 1=1`+clause, args...).Scan(&count)
	return count, err
}

// RefreshAggregates recomputes order-derived customer columns from the cached
// orders. Run after each sync pass.
func (r *CustomerRepository) RefreshAggregates() error {
	_, err := r.DB.Exec(`
        UPDATE customers c
        SET total_orders=o.cnt, total_spent=o.total,
            first_order_at=o.first_at, last_order_at=o.last_at
        FROM (
            SELECT source, customer_external_id,
                   COUNT(*) AS cnt, COALESCE(SUM(total), 0) AS total,
                   MIN(placed_at) AS first_at, MAX(placed_at) AS last_at
            FROM orders
            GROUP BY source, customer_external_id
        ) o
        WHERE c.source=o.source AND c.external_id=o.customer_external_id
    `)
	return err
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
