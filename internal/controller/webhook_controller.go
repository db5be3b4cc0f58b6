package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/unclebandit/outreach-backend/internal/service"
)

// maxWebhookBody caps the payload we read from the provider.
const maxWebhookBody = 1 << 20

type WebhookController struct {
	Webhooks *service.WebhookService
	Log      zerolog.Logger
}

// HandleResend consumes delivery-state callbacks. Signature failures get 401;
// everything else is acknowledged so the provider stops retrying.
func (c *WebhookController) HandleResend(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}

	webhookID := r.Header.Get("svix-id")
	timestamp := r.Header.Get("svix-timestamp")
	signature := r.Header.Get("svix-signature")

	if err := c.Webhooks.VerifySignature(webhookID, timestamp, signature, body); err != nil {
		c.Log.Warn().Err(err).Str("webhook_id", webhookID).Msg("webhook rejected")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "signature verification failed"})
		return
	}

	result, err := c.Webhooks.Apply(webhookID, body)
	if err != nil {
		if errors.Is(err, service.ErrMalformedHook) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed payload"})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
