package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/unclebandit/outreach-backend/internal/metrics"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

// ResendService is the timer job that queues one follow-up for each
// delivered-but-unopened email once the campaign's delay has passed.
type ResendService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	EmailRepo    repository.EmailRepositoryInterface
	Log          zerolog.Logger

	now func() time.Time
}

const resendBatchSize = 200

func (s *ResendService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Run executes one resend pass over all sending campaigns and returns the
// number of follow-ups created.
func (s *ResendService) Run() (int, error) {
	campaigns, err := s.CampaignRepo.ListByStatus(model.CampaignSending)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, c := range campaigns {
		n, err := s.runCampaign(c)
		if err != nil {
			s.Log.Error().Err(err).Int("campaign_id", c.ID).Msg("resend pass failed")
			continue
		}
		created += n
	}
	return created, nil
}

func (s *ResendService) runCampaign(c *model.Campaign) (int, error) {
	if !c.ResendEnabled || c.ResendSubject == "" {
		return 0, nil
	}

	cutoff := s.clock().Add(-time.Duration(c.ResendDelayHours) * time.Hour)
	candidates, err := s.EmailRepo.ListResendCandidates(c.ID, cutoff, resendBatchSize)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, email := range candidates {
		// The flag flip is the guard: a concurrent pass that loses the race
		// skips the row.
		flipped, err := s.EmailRepo.MarkResendQueued(email.ID)
		if err != nil {
			return created, err
		}
		if !flipped {
			continue
		}

		if _, err := s.EmailRepo.CreateResend(email, c.ResendSubject); err != nil {
			s.Log.Error().Err(err).Int("email_id", email.ID).Msg("failed to create resend row")
			continue
		}
		metrics.ResendsQueued.Inc()
		created++
	}

	if created > 0 {
		s.Log.Info().Int("campaign_id", c.ID).Int("resends", created).Msg("queued resends")
	}
	return created, nil
}
