package service

import (
	"sort"
	"time"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

// In-memory fakes of the repository interfaces. They mirror the guarded
// UPDATE semantics of the real SQL so race-sensitive paths behave the same.

type campaignRepoMock struct {
	campaigns map[int]*model.Campaign
	counters  map[int]map[string]int
	nextID    int
}

var _ repository.CampaignRepositoryInterface = (*campaignRepoMock)(nil)

func newCampaignRepoMock() *campaignRepoMock {
	return &campaignRepoMock{
		campaigns: map[int]*model.Campaign{},
		counters:  map[int]map[string]int{},
	}
}

func (m *campaignRepoMock) add(c *model.Campaign) *model.Campaign {
	m.nextID++
	c.ID = m.nextID
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	m.campaigns[c.ID] = c
	return c
}

func (m *campaignRepoMock) Create(c *model.Campaign) error {
	m.add(c)
	return nil
}

func (m *campaignRepoMock) Update(c *model.Campaign) error {
	m.campaigns[c.ID] = c
	return nil
}

func (m *campaignRepoMock) GetByID(id int) (*model.Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	copied := *c
	return &copied, nil
}

func (m *campaignRepoMock) List(offset, limit int, status, segment string) ([]*model.Campaign, int, error) {
	all := []*model.Campaign{}
	for _, c := range m.campaigns {
		if status != "" && string(c.Status) != status {
			continue
		}
		if segment != "" && c.Segment != segment {
			continue
		}
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *campaignRepoMock) Transition(campaignID int, from, to model.CampaignStatus) (bool, error) {
	c, ok := m.campaigns[campaignID]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	return true, nil
}

func (m *campaignRepoMock) ListByStatus(status model.CampaignStatus) ([]*model.Campaign, error) {
	out := []*model.Campaign{}
	for _, c := range m.campaigns {
		if c.Status == status {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *campaignRepoMock) MarkStarted(campaignID int) error {
	c := m.campaigns[campaignID]
	if c.StartedAt == nil {
		now := time.Now()
		c.StartedAt = &now
	}
	return nil
}

func (m *campaignRepoMock) MarkCompleted(campaignID int) error {
	now := time.Now()
	m.campaigns[campaignID].CompletedAt = &now
	return nil
}

func (m *campaignRepoMock) IncrementCounter(campaignID int, counter string) error {
	if m.counters[campaignID] == nil {
		m.counters[campaignID] = map[string]int{}
	}
	m.counters[campaignID][counter]++
	return nil
}

func (m *campaignRepoMock) counter(campaignID int, counter string) int {
	return m.counters[campaignID][counter]
}

type emailRepoMock struct {
	emails map[int]*model.Email
	nextID int

	// campaigns receives the aggregate bumps that ride the SQL statements in
	// the real repository.
	campaigns  *campaignRepoMock
	advanceErr error // returned by the next AdvanceStatus call, then cleared
}

var _ repository.EmailRepositoryInterface = (*emailRepoMock)(nil)

func newEmailRepoMock() *emailRepoMock {
	return &emailRepoMock{emails: map[int]*model.Email{}}
}

func (m *emailRepoMock) add(e *model.Email) *model.Email {
	m.nextID++
	e.ID = m.nextID
	if e.Status == "" {
		e.Status = model.EmailPending
	}
	m.emails[e.ID] = e
	return e
}

func (m *emailRepoMock) CreateForCampaign(campaignID, customerID int, recipient string) (*model.Email, error) {
	for _, e := range m.emails {
		if e.CampaignID == campaignID && e.CustomerID == customerID && !e.IsResend {
			return e, nil
		}
	}
	return m.add(&model.Email{
		CampaignID: campaignID,
		CustomerID: customerID,
		Recipient:  recipient,
		Status:     model.EmailPending,
	}), nil
}

func (m *emailRepoMock) CreateResend(original *model.Email, subject string) (*model.Email, error) {
	return m.add(&model.Email{
		CampaignID: original.CampaignID,
		CustomerID: original.CustomerID,
		Recipient:  original.Recipient,
		Subject:    subject,
		Status:     model.EmailPending,
		IsResend:   true,
	}), nil
}

func (m *emailRepoMock) GetByID(id int) (*model.Email, error) {
	e, ok := m.emails[id]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (m *emailRepoMock) GetByProviderMessageID(providerMessageID string) (*model.Email, error) {
	for _, e := range m.emails {
		if e.ProviderMessageID == providerMessageID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *emailRepoMock) ListByCampaign(campaignID int, status model.EmailStatus, limit int) ([]*model.Email, error) {
	out := []*model.Email{}
	for _, e := range m.emails {
		if e.CampaignID != campaignID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		copied := *e
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *emailRepoMock) ClaimPending(campaignID, limit int) ([]int, error) {
	ids := []int{}
	for _, e := range m.sorted() {
		if len(ids) == limit {
			break
		}
		if e.CampaignID == campaignID && e.Status == model.EmailPending {
			e.Status = model.EmailQueued
			e.UpdatedAt = time.Now()
			ids = append(ids, e.ID)
		}
	}
	return ids, nil
}

func (m *emailRepoMock) RequeueStale(olderThan time.Time) (int, error) {
	n := 0
	for _, e := range m.emails {
		if e.Status == model.EmailQueued && e.UpdatedAt.Before(olderThan) {
			e.Status = model.EmailPending
			n++
		}
	}
	return n, nil
}

func (m *emailRepoMock) MarkSent(id int, providerMessageID, subject, body string) error {
	e := m.emails[id]
	now := time.Now()
	e.Status = model.EmailSent
	e.ProviderMessageID = providerMessageID
	e.Subject = subject
	e.Body = body
	e.SentAt = &now
	return nil
}

func (m *emailRepoMock) MarkFailed(id int, lastError string) error {
	e := m.emails[id]
	e.Status = model.EmailFailed
	e.LastError = lastError
	return nil
}

func (m *emailRepoMock) AdvanceStatus(id int, from []model.EmailStatus, to model.EmailStatus, counter string) (bool, error) {
	if m.advanceErr != nil {
		err := m.advanceErr
		m.advanceErr = nil
		return false, err
	}
	e, ok := m.emails[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if e.Status == f {
			e.Status = to
			if counter != "" && m.campaigns != nil {
				_ = m.campaigns.IncrementCounter(e.CampaignID, counter)
			}
			return true, nil
		}
	}
	return false, nil
}

func (m *emailRepoMock) SetFirstOpened(id int, at time.Time) (bool, error) {
	e := m.emails[id]
	if e.FirstOpenedAt != nil {
		return false, nil
	}
	e.FirstOpenedAt = &at
	if m.campaigns != nil {
		_ = m.campaigns.IncrementCounter(e.CampaignID, "opened_count")
	}
	return true, nil
}

func (m *emailRepoMock) SetFirstClicked(id int, at time.Time) (bool, error) {
	e := m.emails[id]
	if e.FirstClickedAt != nil {
		return false, nil
	}
	e.FirstClickedAt = &at
	if m.campaigns != nil {
		_ = m.campaigns.IncrementCounter(e.CampaignID, "clicked_count")
	}
	return true, nil
}

func (m *emailRepoMock) CountSentSince(campaignID int, since time.Time) (int, error) {
	n := 0
	for _, e := range m.emails {
		if e.CampaignID == campaignID && e.SentAt != nil && e.SentAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (m *emailRepoMock) CountUnfinished(campaignID int) (int, error) {
	n := 0
	for _, e := range m.emails {
		if e.CampaignID == campaignID &&
			(e.Status == model.EmailPending || e.Status == model.EmailQueued) {
			n++
		}
	}
	return n, nil
}

func (m *emailRepoMock) CountAwaitingResend(campaignID int) (int, error) {
	n := 0
	for _, e := range m.emails {
		if e.CampaignID == campaignID && e.Status == model.EmailDelivered &&
			!e.IsResend && !e.ResendQueued {
			n++
		}
	}
	return n, nil
}

func (m *emailRepoMock) StatsByCampaign(campaignID int) (map[string]int, error) {
	stats := map[string]int{}
	for _, e := range m.emails {
		if e.CampaignID == campaignID {
			stats[string(e.Status)]++
		}
	}
	return stats, nil
}

func (m *emailRepoMock) ListResendCandidates(campaignID int, cutoff time.Time, limit int) ([]*model.Email, error) {
	out := []*model.Email{}
	for _, e := range m.sorted() {
		if len(out) == limit {
			break
		}
		if e.CampaignID != campaignID || e.IsResend || e.ResendQueued {
			continue
		}
		if e.Status != model.EmailDelivered {
			continue
		}
		if e.SentAt == nil || !e.SentAt.Before(cutoff) {
			continue
		}
		copied := *e
		out = append(out, &copied)
	}
	return out, nil
}

func (m *emailRepoMock) MarkResendQueued(id int) (bool, error) {
	e := m.emails[id]
	if e.ResendQueued {
		return false, nil
	}
	e.ResendQueued = true
	return true, nil
}

func (m *emailRepoMock) sorted() []*model.Email {
	out := make([]*model.Email, 0, len(m.emails))
	for _, e := range m.emails {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type customerRepoMock struct {
	customers map[int]*model.Customer
	segments  map[model.Segment][]*model.Customer
}

var _ repository.CustomerRepositoryInterface = (*customerRepoMock)(nil)

func newCustomerRepoMock() *customerRepoMock {
	return &customerRepoMock{
		customers: map[int]*model.Customer{},
		segments:  map[model.Segment][]*model.Customer{},
	}
}

func (m *customerRepoMock) addToSegment(segment model.Segment, c *model.Customer) {
	m.customers[c.ID] = c
	m.segments[segment] = append(m.segments[segment], c)
}

func (m *customerRepoMock) GetByID(id int) (*model.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (m *customerRepoMock) GetByEmail(email string) (*model.Customer, error) {
	for _, c := range m.customers {
		if c.Email == email {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *customerRepoMock) Upsert(c *model.Customer) error {
	m.customers[c.ID] = c
	return nil
}

func (m *customerRepoMock) ListSegment(segment model.Segment, _ repository.SegmentThresholds, offset, limit int) ([]*model.Customer, error) {
	members := m.segments[segment]
	if offset > len(members) {
		return []*model.Customer{}, nil
	}
	end := offset + limit
	if end > len(members) {
		end = len(members)
	}
	return members[offset:end], nil
}

func (m *customerRepoMock) CountSegment(segment model.Segment, _ repository.SegmentThresholds) (int, error) {
	return len(m.segments[segment]), nil
}

func (m *customerRepoMock) RefreshAggregates() error { return nil }

type orderRepoMock struct {
	latest map[string]*model.Order
}

var _ repository.OrderRepositoryInterface = (*orderRepoMock)(nil)

func newOrderRepoMock() *orderRepoMock {
	return &orderRepoMock{latest: map[string]*model.Order{}}
}

func (m *orderRepoMock) Upsert(o *model.Order) error {
	m.latest[o.Source+"|"+o.CustomerExternalID] = o
	return nil
}

func (m *orderRepoMock) LatestForCustomer(source, customerExternalID string) (*model.Order, error) {
	return m.latest[source+"|"+customerExternalID], nil
}

func (m *orderRepoMock) CountBySource(source string) (int, error) {
	n := 0
	for _, o := range m.latest {
		if o.Source == source {
			n++
		}
	}
	return n, nil
}

type templateRepoMock struct {
	templates map[int]*model.Template
	nextID    int
}

var _ repository.TemplateRepositoryInterface = (*templateRepoMock)(nil)

func newTemplateRepoMock() *templateRepoMock {
	return &templateRepoMock{templates: map[int]*model.Template{}}
}

func (m *templateRepoMock) Create(t *model.Template) error {
	m.nextID++
	t.ID = m.nextID
	m.templates[t.ID] = t
	return nil
}

func (m *templateRepoMock) Update(t *model.Template) error {
	m.templates[t.ID] = t
	return nil
}

func (m *templateRepoMock) GetByID(id int) (*model.Template, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, appErrors.ErrTemplateNotFound
	}
	return t, nil
}

func (m *templateRepoMock) Delete(id int) error {
	if _, ok := m.templates[id]; !ok {
		return appErrors.ErrTemplateNotFound
	}
	delete(m.templates, id)
	return nil
}

func (m *templateRepoMock) List(offset, limit int) ([]*model.Template, int, error) {
	out := []*model.Template{}
	for _, t := range m.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

type eventRepoMock struct {
	seen map[string]bool
}

var _ repository.WebhookEventRepositoryInterface = (*eventRepoMock)(nil)

func newEventRepoMock() *eventRepoMock {
	return &eventRepoMock{seen: map[string]bool{}}
}

func (m *eventRepoMock) Record(e *model.WebhookEvent) (bool, error) {
	if m.seen[e.EventID] {
		return false, nil
	}
	m.seen[e.EventID] = true
	return true, nil
}

type queueMock struct {
	published []queue.SendJob
	err       error
}

var _ queue.Queue = (*queueMock)(nil)

func (m *queueMock) PublishSend(job queue.SendJob) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, job)
	return nil
}

func (m *queueMock) Close() error { return nil }
