package service

import (
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	EmailRepo    repository.EmailRepositoryInterface
	TemplateRepo repository.TemplateRepositoryInterface
	Segments     *SegmentService
	Log          zerolog.Logger
}

// CreateCampaignInput carries the request payload for campaign creation.
type CreateCampaignInput struct {
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Segment          string     `json:"segment"`
	TemplateID       int        `json:"template_id"`
	Subject          string     `json:"subject"`
	RateLimitPerHour int        `json:"rate_limit_per_hour"`
	DryRun           bool       `json:"dry_run"`
	ResendEnabled    bool       `json:"resend_enabled"`
	ResendDelayHours int        `json:"resend_delay_hours"`
	ResendSubject    string     `json:"resend_subject"`
	ScheduledAt      *time.Time `json:"scheduled_at"`
}

// CampaignDetails is a campaign plus its per-status email breakdown.
type CampaignDetails struct {
	*model.Campaign
	Stats map[string]int `json:"stats"`
}

func (s *CampaignService) Create(in CreateCampaignInput) (*model.Campaign, error) {
	if in.Segment == "" {
		in.Segment = string(model.SegmentAll)
	}
	if !model.Segment(in.Segment).Valid() {
		return nil, appErrors.ErrUnknownSegment
	}
	if _, err := s.TemplateRepo.GetByID(in.TemplateID); err != nil {
		return nil, err
	}
	if in.RateLimitPerHour < 1 {
		in.RateLimitPerHour = 100
	}
	if in.ResendDelayHours < 1 {
		in.ResendDelayHours = 48
	}

	c := &model.Campaign{
		Name:             in.Name,
		Description:      in.Description,
		Segment:          in.Segment,
		TemplateID:       in.TemplateID,
		Subject:          in.Subject,
		Status:           model.CampaignDraft,
		RateLimitPerHour: in.RateLimitPerHour,
		DryRun:           in.DryRun,
		ResendEnabled:    in.ResendEnabled,
		ResendDelayHours: in.ResendDelayHours,
		ResendSubject:    in.ResendSubject,
		ScheduledAt:      in.ScheduledAt,
	}
	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update applies edits to a draft campaign. Anything past draft is locked.
func (s *CampaignService) Update(id int, in CreateCampaignInput) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c.Status != model.CampaignDraft {
		return nil, appErrors.NewInvalidTransition(id, string(c.Status), string(c.Status))
	}
	if in.Segment != "" && !model.Segment(in.Segment).Valid() {
		return nil, appErrors.ErrUnknownSegment
	}

	if in.Name != "" {
		c.Name = in.Name
	}
	if in.Description != "" {
		c.Description = in.Description
	}
	if in.Segment != "" {
		c.Segment = in.Segment
	}
	if in.TemplateID != 0 {
		if _, err := s.TemplateRepo.GetByID(in.TemplateID); err != nil {
			return nil, err
		}
		c.TemplateID = in.TemplateID
	}
	if in.Subject != "" {
		c.Subject = in.Subject
	}
	if in.RateLimitPerHour > 0 {
		c.RateLimitPerHour = in.RateLimitPerHour
	}
	c.DryRun = in.DryRun
	c.ResendEnabled = in.ResendEnabled
	if in.ResendDelayHours > 0 {
		c.ResendDelayHours = in.ResendDelayHours
	}
	if in.ResendSubject != "" {
		c.ResendSubject = in.ResendSubject
	}
	if in.ScheduledAt != nil {
		c.ScheduledAt = in.ScheduledAt
	}

	if err := s.CampaignRepo.Update(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) List(page, pageSize int, status, segment string) ([]*model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	campaigns, total, err := s.CampaignRepo.List(offset, pageSize, status, segment)
	if err != nil {
		return nil, nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}
	return campaigns, pagination, nil
}

func (s *CampaignService) GetWithStats(id int) (*CampaignDetails, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	stats, err := s.EmailRepo.StatsByCampaign(id)
	if err != nil {
		return nil, err
	}
	return &CampaignDetails{Campaign: c, Stats: stats}, nil
}

// transition fetches, validates, and applies a status change.
func (s *CampaignService) transition(id int, to model.CampaignStatus) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !c.CanTransitionTo(to) {
		return nil, appErrors.NewInvalidTransition(id, string(c.Status), string(to))
	}

	ok, err := s.CampaignRepo.Transition(id, c.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with another transition; refetch and report.
		c, err = s.CampaignRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		return nil, appErrors.NewInvalidTransition(id, string(c.Status), string(to))
	}

	c.Status = to
	return c, nil
}

// Schedule moves a draft campaign to scheduled for the given time. The
// transition is checked before scheduled_at is written so a rejected call
// leaves the campaign untouched.
func (s *CampaignService) Schedule(id int, at time.Time) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !c.CanTransitionTo(model.CampaignScheduled) {
		return nil, appErrors.NewInvalidTransition(id, string(c.Status), string(model.CampaignScheduled))
	}
	c.ScheduledAt = &at
	if err := s.CampaignRepo.Update(c); err != nil {
		return nil, err
	}
	return s.transition(id, model.CampaignScheduled)
}

// Start moves a campaign to sending and snapshots its segment into pending
// email rows. Safe to call again after a pause; existing rows are kept.
func (s *CampaignService) Start(id int) (*model.Campaign, int, error) {
	c, err := s.transition(id, model.CampaignSending)
	if err != nil {
		return nil, 0, err
	}

	members, err := s.Segments.Resolve(model.Segment(c.Segment))
	if err != nil {
		return nil, 0, err
	}

	created := 0
	for _, customer := range members {
		if _, err := s.EmailRepo.CreateForCampaign(c.ID, customer.ID, customer.Email); err != nil {
			s.Log.Warn().Err(err).
				Int("campaign_id", c.ID).
				Int("customer_id", customer.ID).
				Msg("failed to create email row")
			continue
		}
		created++
	}

	if err := s.CampaignRepo.MarkStarted(c.ID); err != nil {
		return nil, created, err
	}

	s.Log.Info().
		Int("campaign_id", c.ID).
		Str("segment", c.Segment).
		Int("recipients", created).
		Bool("dry_run", c.DryRun).
		Msg("campaign started")
	return c, created, nil
}

func (s *CampaignService) Pause(id int) (*model.Campaign, error) {
	return s.transition(id, model.CampaignPaused)
}

func (s *CampaignService) Resume(id int) (*model.Campaign, error) {
	return s.transition(id, model.CampaignSending)
}

func (s *CampaignService) Cancel(id int) (*model.Campaign, error) {
	return s.transition(id, model.CampaignCancelled)
}
