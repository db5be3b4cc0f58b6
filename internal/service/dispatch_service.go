package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/unclebandit/outreach-backend/internal/metrics"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

// DispatchService is the polling loop that feeds the send queue. Each tick it
// promotes due scheduled campaigns, claims each sending campaign's remaining
// hourly budget, and completes campaigns with no work left.
type DispatchService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	EmailRepo    repository.EmailRepositoryInterface
	Campaigns    *CampaignService
	Queue        queue.Queue
	Log          zerolog.Logger

	now func() time.Time // overridable in tests
}

func (s *DispatchService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// staleAfter is how long a queued row may sit before the dispatcher assumes
// the publish or the worker lost it.
const staleAfter = 15 * time.Minute

// Tick runs one dispatch pass and returns the number of emails queued.
func (s *DispatchService) Tick() (int, error) {
	if err := s.promoteScheduled(); err != nil {
		return 0, err
	}

	if n, err := s.EmailRepo.RequeueStale(s.clock().Add(-staleAfter)); err != nil {
		s.Log.Error().Err(err).Msg("requeue stale failed")
	} else if n > 0 {
		s.Log.Warn().Int("count", n).Msg("requeued stale emails")
	}

	sending, err := s.CampaignRepo.ListByStatus(model.CampaignSending)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, c := range sending {
		n, err := s.dispatchCampaign(c)
		if err != nil {
			s.Log.Error().Err(err).Int("campaign_id", c.ID).Msg("dispatch failed")
			continue
		}
		queued += n
	}
	return queued, nil
}

// promoteScheduled starts campaigns whose scheduled time has passed.
func (s *DispatchService) promoteScheduled() error {
	scheduled, err := s.CampaignRepo.ListByStatus(model.CampaignScheduled)
	if err != nil {
		return err
	}

	now := s.clock()
	for _, c := range scheduled {
		if c.ScheduledAt == nil || c.ScheduledAt.After(now) {
			continue
		}
		if _, _, err := s.Campaigns.Start(c.ID); err != nil {
			s.Log.Error().Err(err).Int("campaign_id", c.ID).Msg("failed to start scheduled campaign")
		}
	}
	return nil
}

// HourlyBudget computes how many more emails the campaign may send in the
// trailing hour. Never negative; a lowered limit takes effect immediately.
func (s *DispatchService) HourlyBudget(c *model.Campaign) (int, error) {
	sentLastHour, err := s.EmailRepo.CountSentSince(c.ID, s.clock().Add(-time.Hour))
	if err != nil {
		return 0, err
	}
	budget := c.RateLimitPerHour - sentLastHour
	if budget < 0 {
		budget = 0
	}
	return budget, nil
}

func (s *DispatchService) dispatchCampaign(c *model.Campaign) (int, error) {
	budget, err := s.HourlyBudget(c)
	if err != nil {
		return 0, err
	}

	if budget > 0 {
		ids, err := s.EmailRepo.ClaimPending(c.ID, budget)
		if err != nil {
			return 0, err
		}
		published := 0
		for _, id := range ids {
			if err := s.Queue.PublishSend(queue.SendJob{EmailID: id}); err != nil {
				// Row stays queued; RequeueStale reclaims it next pass.
				s.Log.Error().Err(err).Int("email_id", id).Msg("publish failed")
				continue
			}
			metrics.DispatchedEmails.Inc()
			published++
		}
		if published > 0 {
			s.Log.Info().
				Int("campaign_id", c.ID).
				Int("queued", published).
				Int("budget", budget).
				Msg("dispatched batch")
		}
		if len(ids) > 0 {
			return published, nil
		}
	}

	return 0, s.maybeComplete(c)
}

// maybeComplete finishes a sending campaign whose emails are all terminal or
// in provider hands, and whose resend window, if one applies, has drained.
func (s *DispatchService) maybeComplete(c *model.Campaign) error {
	unfinished, err := s.EmailRepo.CountUnfinished(c.ID)
	if err != nil {
		return err
	}
	if unfinished > 0 {
		return nil
	}

	if c.ResendEnabled && c.ResendSubject != "" {
		awaiting, err := s.EmailRepo.CountAwaitingResend(c.ID)
		if err != nil {
			return err
		}
		if awaiting > 0 {
			// Delivered-unopened originals may still spawn follow-ups; the
			// campaign stays sending so the resend job and dispatcher see it.
			return nil
		}
	}

	ok, err := s.CampaignRepo.Transition(c.ID, model.CampaignSending, model.CampaignCompleted)
	if err != nil {
		return err
	}
	if ok {
		if err := s.CampaignRepo.MarkCompleted(c.ID); err != nil {
			return err
		}
		s.Log.Info().Int("campaign_id", c.ID).Msg("campaign completed")
	}
	return nil
}
