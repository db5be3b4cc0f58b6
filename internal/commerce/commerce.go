package commerce

import (
	"context"

	"github.com/unclebandit/outreach-backend/internal/model"
)

// Source pages an external commerce API into cache rows. Implementations
// return an empty slice once the pages run out.
type Source interface {
	Name() string
	FetchCustomers(ctx context.Context, page, pageSize int) ([]*model.Customer, error)
	FetchOrders(ctx context.Context, page, pageSize int) ([]*model.Order, error)
}
