package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/unclebandit/outreach-backend/internal/metrics"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/provider"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

// EventTracker mirrors sends into a marketing platform. Best-effort only.
type EventTracker interface {
	TrackSend(ctx context.Context, recipient string, campaignID int, subject string)
}

// Worker processes queued send jobs: render, deliver, record.
type Worker struct {
	CampaignRepo repository.CampaignRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	EmailRepo    repository.EmailRepositoryInterface
	Templates    *TemplateService
	Sender       provider.Sender
	Tracker      EventTracker
	FromEmail    string
	FromName     string
	Log          zerolog.Logger
}

// Process handles one send job. The returned error triggers a queue-level
// retry; a nil return acks the job.
func (w *Worker) Process(ctx context.Context, job queue.SendJob, attempt int) error {
	email, err := w.EmailRepo.GetByID(job.EmailID)
	if err != nil {
		return err
	}
	if email == nil {
		w.Log.Warn().Int("email_id", job.EmailID).Msg("email not found, dropping job")
		return nil
	}
	if email.Status != model.EmailQueued {
		// Already handled, or pulled back by a pause/cancel.
		w.Log.Debug().Int("email_id", email.ID).Str("status", string(email.Status)).Msg("skipping job")
		return nil
	}

	campaign, err := w.CampaignRepo.GetByID(email.CampaignID)
	if err != nil {
		return err
	}
	if campaign.Status != model.CampaignSending {
		// Campaign paused or cancelled after dispatch; put the row back.
		_, err := w.EmailRepo.AdvanceStatus(email.ID, []model.EmailStatus{model.EmailQueued}, model.EmailPending, "")
		return err
	}

	customer, err := w.CustomerRepo.GetByID(email.CustomerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return w.fail(email, campaign, "customer missing from cache")
	}

	subjectOverride := ""
	if email.IsResend {
		subjectOverride = campaign.ResendSubject
	}
	subject, body, err := w.Templates.Render(campaign, customer, subjectOverride)
	if err != nil {
		return w.fail(email, campaign, fmt.Sprintf("render: %v", err))
	}

	providerMessageID := ""
	if campaign.DryRun {
		// Full pipeline minus the provider call.
		providerMessageID = "dry-run-" + uuid.NewString()
		metrics.EmailsSent.WithLabelValues("dry_run").Inc()
	} else {
		providerMessageID, err = w.Sender.Send(ctx, provider.OutboundEmail{
			From:       w.FromEmail,
			FromName:   w.FromName,
			To:         email.Recipient,
			Subject:    subject,
			HTML:       body,
			CampaignID: campaign.ID,
		})
		if err != nil {
			metrics.EmailsSent.WithLabelValues("failed").Inc()
			w.Log.Warn().Err(err).
				Int("email_id", email.ID).
				Int("attempt", attempt).
				Msg("provider send failed")
			return fmt.Errorf("provider send: %w", err)
		}
		metrics.EmailsSent.WithLabelValues("sent").Inc()
		if w.Tracker != nil {
			w.Tracker.TrackSend(ctx, email.Recipient, campaign.ID, subject)
		}
	}

	if err := w.EmailRepo.MarkSent(email.ID, providerMessageID, subject, body); err != nil {
		return err
	}
	if err := w.CampaignRepo.IncrementCounter(campaign.ID, "sent_count"); err != nil {
		return err
	}

	w.Log.Info().
		Int("email_id", email.ID).
		Int("campaign_id", campaign.ID).
		Bool("dry_run", campaign.DryRun).
		Bool("resend", email.IsResend).
		Msg("email sent")
	return nil
}

// MarkExhausted records a permanent failure once the queue gives up on a job.
func (w *Worker) MarkExhausted(job queue.SendJob, cause error) {
	email, err := w.EmailRepo.GetByID(job.EmailID)
	if err != nil || email == nil {
		return
	}
	campaign, err := w.CampaignRepo.GetByID(email.CampaignID)
	if err != nil {
		return
	}
	if err := w.fail(email, campaign, cause.Error()); err != nil {
		w.Log.Error().Err(err).Int("email_id", email.ID).Msg("failed to record exhausted job")
	}
}

func (w *Worker) fail(email *model.Email, campaign *model.Campaign, reason string) error {
	if err := w.EmailRepo.MarkFailed(email.ID, reason); err != nil {
		return err
	}
	return w.CampaignRepo.IncrementCounter(campaign.ID, "failed_count")
}
