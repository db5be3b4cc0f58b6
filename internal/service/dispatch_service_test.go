package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/outreach-backend/internal/model"
)

type dispatchFixture struct {
	svc       *DispatchService
	campaigns *campaignRepoMock
	emails    *emailRepoMock
	customers *customerRepoMock
	queue     *queueMock
	now       time.Time
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	campaigns := newCampaignRepoMock()
	emails := newEmailRepoMock()
	customers := newCustomerRepoMock()
	templates := newTemplateRepoMock()
	require.NoError(t, templates.Create(&model.Template{Name: "t", Subject: "s", Body: "b"}))

	q := &queueMock{}
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	f := &dispatchFixture{campaigns: campaigns, emails: emails, customers: customers, queue: q, now: now}
	f.svc = &DispatchService{
		CampaignRepo: campaigns,
		EmailRepo:    emails,
		Campaigns: &CampaignService{
			CampaignRepo: campaigns,
			EmailRepo:    emails,
			TemplateRepo: templates,
			Segments:     &SegmentService{CustomerRepo: customers, Config: testConfig()},
			Log:          zerolog.Nop(),
		},
		Queue: q,
		Log:   zerolog.Nop(),
		now:   func() time.Time { return f.now },
	}
	return f
}

func TestHourlyBudget(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.campaigns.add(&model.Campaign{Status: model.CampaignSending, RateLimitPerHour: 5})

	recent := f.now.Add(-30 * time.Minute)
	older := f.now.Add(-2 * time.Hour)
	for i := 0; i < 3; i++ {
		f.emails.add(&model.Email{CampaignID: c.ID, Status: model.EmailSent, SentAt: &recent})
	}
	f.emails.add(&model.Email{CampaignID: c.ID, Status: model.EmailSent, SentAt: &older})

	budget, err := f.svc.HourlyBudget(c)
	require.NoError(t, err)
	assert.Equal(t, 2, budget) // only sends inside the trailing hour count

	c.RateLimitPerHour = 2
	budget, err = f.svc.HourlyBudget(c)
	require.NoError(t, err)
	assert.Equal(t, 0, budget) // lowered limit clamps to zero, never negative
}

func TestTickDispatchesWithinBudget(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.campaigns.add(&model.Campaign{Status: model.CampaignSending, RateLimitPerHour: 2})

	for i := 1; i <= 5; i++ {
		f.emails.add(&model.Email{CampaignID: c.ID, CustomerID: i, Status: model.EmailPending})
	}

	n, err := f.svc.Tick()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, f.queue.published, 2)

	queued, err := f.emails.ListByCampaign(c.ID, model.EmailQueued, 0)
	require.NoError(t, err)
	assert.Len(t, queued, 2)

	pending, err := f.emails.ListByCampaign(c.ID, model.EmailPending, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}

func TestTickPromotesScheduled(t *testing.T) {
	f := newDispatchFixture(t)
	f.customers.addToSegment(model.SegmentAll, &model.Customer{ID: 1, Email: "a@example.com"})

	due := f.now.Add(-time.Minute)
	later := f.now.Add(time.Hour)
	dueCampaign := f.campaigns.add(&model.Campaign{
		Status: model.CampaignScheduled, Segment: string(model.SegmentAll),
		TemplateID: 1, RateLimitPerHour: 10, ScheduledAt: &due,
	})
	futureCampaign := f.campaigns.add(&model.Campaign{
		Status: model.CampaignScheduled, Segment: string(model.SegmentAll),
		TemplateID: 1, RateLimitPerHour: 10, ScheduledAt: &later,
	})

	n, err := f.svc.Tick()
	require.NoError(t, err)
	assert.Equal(t, 1, n) // the promoted campaign's one recipient was dispatched

	stored, _ := f.campaigns.GetByID(dueCampaign.ID)
	assert.Equal(t, model.CampaignSending, stored.Status)
	stored, _ = f.campaigns.GetByID(futureCampaign.ID)
	assert.Equal(t, model.CampaignScheduled, stored.Status)
}

func TestTickCompletesFinishedCampaign(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.campaigns.add(&model.Campaign{Status: model.CampaignSending, RateLimitPerHour: 10})

	sentAt := f.now.Add(-3 * time.Hour)
	f.emails.add(&model.Email{CampaignID: c.ID, Status: model.EmailDelivered, SentAt: &sentAt})
	f.emails.add(&model.Email{CampaignID: c.ID, Status: model.EmailFailed})

	_, err := f.svc.Tick()
	require.NoError(t, err)

	stored, _ := f.campaigns.GetByID(c.ID)
	assert.Equal(t, model.CampaignCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
}

func TestTickHoldsCompletionForResendWindow(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.campaigns.add(&model.Campaign{
		Status:           model.CampaignSending,
		RateLimitPerHour: 10,
		ResendEnabled:    true,
		ResendDelayHours: 48,
		ResendSubject:    "Still interested?",
	})
	sentAt := f.now.Add(-2 * time.Hour)
	original := f.emails.add(&model.Email{
		CampaignID: c.ID, CustomerID: 1, Recipient: "a@example.com",
		Status: model.EmailDelivered, SentAt: &sentAt,
	})

	// Nothing pending, but the delivered-unopened original may still spawn a
	// follow-up; the campaign must not complete out from under the resend job.
	_, err := f.svc.Tick()
	require.NoError(t, err)
	stored, _ := f.campaigns.GetByID(c.ID)
	assert.Equal(t, model.CampaignSending, stored.Status)

	f.now = f.now.Add(50 * time.Hour)
	resend := &ResendService{
		CampaignRepo: f.campaigns,
		EmailRepo:    f.emails,
		Log:          zerolog.Nop(),
		now:          func() time.Time { return f.now },
	}
	created, err := resend.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	n, err := f.svc.Tick()
	require.NoError(t, err)
	assert.Equal(t, 1, n) // the follow-up goes out through the normal path
	assert.Len(t, f.queue.published, 1)

	// Follow-up delivered; the original has spawned its resend, so the next
	// tick may complete the campaign.
	for _, e := range f.emails.emails {
		if e.IsResend {
			e.Status = model.EmailDelivered
		}
	}
	_, err = f.svc.Tick()
	require.NoError(t, err)
	stored, _ = f.campaigns.GetByID(c.ID)
	assert.Equal(t, model.CampaignCompleted, stored.Status)

	storedOriginal, _ := f.emails.GetByID(original.ID)
	assert.True(t, storedOriginal.ResendQueued)
}

func TestTickRequeuesStaleClaims(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.campaigns.add(&model.Campaign{Status: model.CampaignSending, RateLimitPerHour: 10})

	stale := f.emails.add(&model.Email{CampaignID: c.ID, CustomerID: 1, Status: model.EmailQueued})
	f.emails.emails[stale.ID].UpdatedAt = f.now.Add(-time.Hour)

	n, err := f.svc.Tick()
	require.NoError(t, err)
	assert.Equal(t, 1, n) // reclaimed and dispatched again
	assert.Len(t, f.queue.published, 1)
}

func TestPublishFailureLeavesRowQueued(t *testing.T) {
	f := newDispatchFixture(t)
	f.queue.err = assert.AnError
	c := f.campaigns.add(&model.Campaign{Status: model.CampaignSending, RateLimitPerHour: 10})
	f.emails.add(&model.Email{CampaignID: c.ID, CustomerID: 1, Status: model.EmailPending})

	n, err := f.svc.Tick()
	require.NoError(t, err)
	assert.Equal(t, 0, n) // a failed publish is not a dispatch

	queued, err := f.emails.ListByCampaign(c.ID, model.EmailQueued, 0)
	require.NoError(t, err)
	assert.Len(t, queued, 1) // stays claimed until RequeueStale reclaims it
}
