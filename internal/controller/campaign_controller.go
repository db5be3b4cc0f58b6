package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/service"
)

type CampaignController struct {
	Campaigns *service.CampaignService
	Templates *service.TemplateService
}

func (c *CampaignController) Create(w http.ResponseWriter, r *http.Request) {
	var body service.CreateCampaignInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if body.Name == "" || body.TemplateID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and template_id are required"})
		return
	}

	campaign, err := c.Campaigns.Create(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return
	}

	var body service.CreateCampaignInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	campaign, err := c.Campaigns.Update(id, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page")
	pageSize := queryInt(r, "page_size")
	status := r.URL.Query().Get("status")
	segment := r.URL.Query().Get("segment")

	campaigns, pagination, err := c.Campaigns.List(page, pageSize, status, segment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return
	}

	details, err := c.Campaigns.GetWithStats(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (c *CampaignController) Schedule(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return
	}

	var body struct {
		ScheduledAt time.Time `json:"scheduled_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ScheduledAt.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "scheduled_at is required"})
		return
	}

	campaign, err := c.Campaigns.Schedule(id, body.ScheduledAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

// Send starts the campaign immediately.
func (c *CampaignController) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return
	}

	campaign, recipients, err := c.Campaigns.Start(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaign_id": campaign.ID,
		"status":      campaign.Status,
		"recipients":  recipients,
		"dry_run":     campaign.DryRun,
	})
}

func (c *CampaignController) Pause(w http.ResponseWriter, r *http.Request) {
	c.lifecycle(w, r, c.Campaigns.Pause)
}

func (c *CampaignController) Resume(w http.ResponseWriter, r *http.Request) {
	c.lifecycle(w, r, c.Campaigns.Resume)
}

func (c *CampaignController) Cancel(w http.ResponseWriter, r *http.Request) {
	c.lifecycle(w, r, c.Campaigns.Cancel)
}

func (c *CampaignController) lifecycle(w http.ResponseWriter, r *http.Request, op func(int) (*model.Campaign, error)) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return
	}

	campaign, err := op(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

// Preview renders the campaign template against one customer.
func (c *CampaignController) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return
	}

	var body struct {
		CustomerID   int     `json:"customer_id"`
		OverrideBody *string `json:"override_body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.CustomerID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_id is required"})
		return
	}

	details, err := c.Campaigns.GetWithStats(id)
	if err != nil {
		writeError(w, err)
		return
	}

	rendered, err := c.Templates.RenderPreview(details.Campaign, body.CustomerID, body.OverrideBody)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaign_id":      id,
		"customer_id":      body.CustomerID,
		"rendered_message": rendered,
	})
}
