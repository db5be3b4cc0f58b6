package controller

import (
	"net/http"

	"github.com/unclebandit/outreach-backend/internal/service"
)

// SyncController exposes a manual trigger for the commerce sync, used by the
// dashboard's "refresh now" button.
type SyncController struct {
	Sync *service.SyncService
}

func (c *SyncController) Trigger(w http.ResponseWriter, r *http.Request) {
	result, err := c.Sync.Run(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
