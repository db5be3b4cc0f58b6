package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/service"
)

type SegmentController struct {
	Segments *service.SegmentService
}

func (c *SegmentController) List(w http.ResponseWriter, r *http.Request) {
	counts, err := c.Segments.ListSegments()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": counts})
}

func (c *SegmentController) Preview(w http.ResponseWriter, r *http.Request) {
	segment := model.Segment(chi.URLParam(r, "name"))
	offset := queryInt(r, "offset")
	limit := queryInt(r, "limit")

	members, err := c.Segments.Preview(segment, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"segment": segment,
		"data":    members,
	})
}
