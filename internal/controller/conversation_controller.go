package controller

import (
	"encoding/json"
	"net/http"

	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/service"
)

type ConversationController struct {
	Conversations *service.ConversationService
}

func (c *ConversationController) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VisitorID string          `json:"visitor_id"`
		Metadata  json.RawMessage `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.VisitorID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "visitor_id is required"})
		return
	}

	conversation, err := c.Conversations.Create(body.VisitorID, body.Metadata)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conversation)
}

func (c *ConversationController) List(w http.ResponseWriter, r *http.Request) {
	conversations, pagination, err := c.Conversations.List(
		queryInt(r, "page"), queryInt(r, "page_size"), r.URL.Query().Get("status"),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":       conversations,
		"pagination": pagination,
	})
}

func (c *ConversationController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
		return
	}

	conversation, err := c.Conversations.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

func (c *ConversationController) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
		return
	}

	if err := c.Conversations.Close(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (c *ConversationController) AppendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
		return
	}

	var body struct {
		SenderType model.SenderType `json:"sender_type"`
		Content    string           `json:"content"`
		Metadata   json.RawMessage  `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return
	}
	switch body.SenderType {
	case model.SenderVisitor, model.SenderAI, model.SenderAgent:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sender_type"})
		return
	}

	message, err := c.Conversations.AppendMessage(id, body.SenderType, body.Content, body.Metadata)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func (c *ConversationController) Messages(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
		return
	}

	messages, err := c.Conversations.Messages(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": messages})
}

// CustomerContext returns the cached commerce profile for a visitor email.
func (c *ConversationController) CustomerContext(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}

	customer, err := c.Conversations.CustomerContext(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	if customer == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
		return
	}
	writeJSON(w, http.StatusOK, customer)
}
