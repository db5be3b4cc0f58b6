package controller

import (
	"encoding/json"
	"net/http"

	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

type TemplateController struct {
	TemplateRepo repository.TemplateRepositoryInterface
}

func (c *TemplateController) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string `json:"name"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if body.Name == "" || body.Subject == "" || body.Body == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, subject and body are required"})
		return
	}

	t := &model.Template{Name: body.Name, Subject: body.Subject, Body: body.Body}
	if err := c.TemplateRepo.Create(t); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (c *TemplateController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid template id"})
		return
	}

	t, err := c.TemplateRepo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Name    string `json:"name"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	if body.Name != "" {
		t.Name = body.Name
	}
	if body.Subject != "" {
		t.Subject = body.Subject
	}
	if body.Body != "" {
		t.Body = body.Body
	}

	if err := c.TemplateRepo.Update(t); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (c *TemplateController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid template id"})
		return
	}

	t, err := c.TemplateRepo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (c *TemplateController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid template id"})
		return
	}

	if err := c.TemplateRepo.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *TemplateController) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page")
	pageSize := queryInt(r, "page_size")
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	templates, total, err := c.TemplateRepo.List((page-1)*pageSize, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": templates,
		"pagination": map[string]int{
			"page":        page,
			"page_size":   pageSize,
			"total_count": total,
			"total_pages": (total + pageSize - 1) / pageSize,
		},
	})
}
