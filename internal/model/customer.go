package model

import "time"

// Commerce sources the cache rows are mirrored from.
const (
	SourceCin7        = "cin7"
	SourceWooCommerce = "woocommerce"
)

// Customer is a row in the local commerce cache, mirrored from an external
// API and refreshed by the sync jobs.
type Customer struct {
	ID         int    `db:"id" json:"id"`
	ExternalID string `db:"external_id" json:"external_id"`
	Source     string `db:"source" json:"source"`
	Email      string `db:"email" json:"email"`
	FirstName  string `db:"first_name" json:"first_name"`
	LastName   string `db:"last_name" json:"last_name"`
	Phone      string `db:"phone" json:"phone"`
	City       string `db:"city" json:"city"`

	TotalOrders  int     `db:"total_orders" json:"total_orders"`
	TotalSpent   float64 `db:"total_spent" json:"total_spent"`
	Unsubscribed bool    `db:"unsubscribed" json:"unsubscribed"`

	FirstOrderAt *time.Time `db:"first_order_at" json:"first_order_at,omitempty"`
	LastOrderAt  *time.Time `db:"last_order_at" json:"last_order_at,omitempty"`
	SyncedAt     time.Time  `db:"synced_at" json:"synced_at"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// FullName joins first and last name, tolerating blanks.
func (c *Customer) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
