package controller

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{appErrors.NewCampaignNotFound(3), http.StatusNotFound},
		{appErrors.ErrTemplateNotFound, http.StatusNotFound},
		{appErrors.NewInvalidTransition(3, "completed", "sending"), http.StatusConflict},
		{appErrors.ErrUnknownSegment, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}
