package service

import (
	"time"

	"github.com/unclebandit/outreach-backend/internal/config"
	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

// SegmentService resolves named segments against the commerce cache.
type SegmentService struct {
	CustomerRepo repository.CustomerRepositoryInterface
	Config       *config.Config
}

func (s *SegmentService) thresholds() repository.SegmentThresholds {
	now := time.Now()
	return repository.SegmentThresholds{
		VIPSpend:  s.Config.VIPSpendThreshold,
		DormantAt: now.Add(-s.Config.DormantAfter),
		NewSince:  now.Add(-s.Config.NewCustomerWindow),
	}
}

// ListSegments returns every known segment with its live member count.
func (s *SegmentService) ListSegments() ([]model.SegmentCount, error) {
	t := s.thresholds()
	counts := []model.SegmentCount{}
	for _, segment := range []model.Segment{
		model.SegmentAll, model.SegmentVIP, model.SegmentDormant, model.SegmentNew,
	} {
		count, err := s.CustomerRepo.CountSegment(segment, t)
		if err != nil {
			return nil, err
		}
		counts = append(counts, model.SegmentCount{Segment: segment, Count: count})
	}
	return counts, nil
}

// Preview returns one page of segment members for the dashboard.
func (s *SegmentService) Preview(segment model.Segment, offset, limit int) ([]*model.Customer, error) {
	if !segment.Valid() {
		return nil, appErrors.ErrUnknownSegment
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}
	return s.CustomerRepo.ListSegment(segment, s.thresholds(), offset, limit)
}

// Resolve returns the full member list, paging internally. Membership is
// snapshotted here; later cache refreshes do not change a started campaign.
func (s *SegmentService) Resolve(segment model.Segment) ([]*model.Customer, error) {
	if !segment.Valid() {
		return nil, appErrors.ErrUnknownSegment
	}

	t := s.thresholds()
	const pageSize = 500

	members := []*model.Customer{}
	for offset := 0; ; offset += pageSize {
		page, err := s.CustomerRepo.ListSegment(segment, t, offset, pageSize)
		if err != nil {
			return nil, err
		}
		members = append(members, page...)
		if len(page) < pageSize {
			return members, nil
		}
	}
}
