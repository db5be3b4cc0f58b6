package service

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/outreach-backend/internal/cache"
	"github.com/unclebandit/outreach-backend/internal/commerce"
	"github.com/unclebandit/outreach-backend/internal/metrics"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

// SyncService pages the external commerce APIs into the local cache tables
// and refreshes the Redis hot cache. Sources run in parallel; pages within a
// source run sequentially.
type SyncService struct {
	CustomerRepo repository.CustomerRepositoryInterface
	OrderRepo    repository.OrderRepositoryInterface
	Sources      []commerce.Source
	HotCache     *cache.CustomerCache
	PageSize     int
	Log          zerolog.Logger
}

// SyncResult summarizes one sync pass.
type SyncResult struct {
	Customers int `json:"customers"`
	Orders    int `json:"orders"`
}

func (s *SyncService) Run(ctx context.Context) (*SyncResult, error) {
	var g errgroup.Group
	results := make([]SyncResult, len(s.Sources))

	for i, source := range s.Sources {
		i, source := i, source
		g.Go(func() error {
			r, err := s.syncSource(ctx, source)
			if err != nil {
				return err
			}
			results[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Order-derived customer columns feed segment membership.
	if err := s.CustomerRepo.RefreshAggregates(); err != nil {
		return nil, err
	}

	total := SyncResult{}
	for _, r := range results {
		total.Customers += r.Customers
		total.Orders += r.Orders
	}
	s.Log.Info().
		Int("customers", total.Customers).
		Int("orders", total.Orders).
		Msg("commerce sync finished")
	return &total, nil
}

func (s *SyncService) syncSource(ctx context.Context, source commerce.Source) (*SyncResult, error) {
	result := &SyncResult{}

	for page := 1; ; page++ {
		customers, err := source.FetchCustomers(ctx, page, s.PageSize)
		if err != nil {
			return nil, err
		}
		if len(customers) == 0 {
			break
		}
		for _, customer := range customers {
			if err := s.CustomerRepo.Upsert(customer); err != nil {
				s.Log.Warn().Err(err).
					Str("source", source.Name()).
					Str("external_id", customer.ExternalID).
					Msg("customer upsert failed")
				continue
			}
			metrics.SyncedRows.WithLabelValues(source.Name(), "customer").Inc()
			result.Customers++

			if s.HotCache != nil {
				if err := s.HotCache.Set(ctx, customer); err != nil {
					s.Log.Warn().Err(err).Str("email", customer.Email).Msg("hot cache set failed")
				}
			}
		}
		if len(customers) < s.PageSize {
			break
		}
	}

	for page := 1; ; page++ {
		orders, err := source.FetchOrders(ctx, page, s.PageSize)
		if err != nil {
			return nil, err
		}
		if len(orders) == 0 {
			break
		}
		for _, order := range orders {
			if err := s.OrderRepo.Upsert(order); err != nil {
				s.Log.Warn().Err(err).
					Str("source", source.Name()).
					Str("external_id", order.ExternalID).
					Msg("order upsert failed")
				continue
			}
			metrics.SyncedRows.WithLabelValues(source.Name(), "order").Inc()
			result.Orders++
		}
		if len(orders) < s.PageSize {
			break
		}
	}

	return result, nil
}
