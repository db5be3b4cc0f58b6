package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/unclebandit/outreach-backend/internal/metrics"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

var (
	ErrBadSignature  = errors.New("webhook signature mismatch")
	ErrStaleWebhook  = errors.New("webhook timestamp outside tolerance")
	ErrMalformedHook = errors.New("malformed webhook payload")
)

// WebhookPayload is the provider's delivery-state callback body.
type WebhookPayload struct {
	Type      model.WebhookEventType `json:"type"`
	CreatedAt time.Time              `json:"created_at"`
	Data      struct {
		EmailID string `json:"email_id"` // provider message id
	} `json:"data"`
}

// ApplyResult describes what a webhook did, for the HTTP response and logs.
type ApplyResult struct {
	Outcome string `json:"outcome"` // applied, duplicate, unknown_message, ignored
	EmailID int    `json:"email_id,omitempty"`
}

type WebhookService struct {
	EmailRepo repository.EmailRepositoryInterface
	EventRepo repository.WebhookEventRepositoryInterface
	Secret    string
	Tolerance time.Duration
	Log       zerolog.Logger

	now func() time.Time
}

func (s *WebhookService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// VerifySignature checks the svix-style headers the provider signs payloads
// with: HMAC-SHA256 over "<id>.<timestamp>.<body>", base64, prefixed "v1,".
// The secret may carry the conventional "whsec_" prefix on a base64 key.
func (s *WebhookService) VerifySignature(webhookID, timestamp, signatureHeader string, body []byte) error {
	if webhookID == "" || timestamp == "" || signatureHeader == "" {
		return ErrBadSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	age := s.clock().Sub(time.Unix(ts, 0))
	if age > s.Tolerance || age < -s.Tolerance {
		return ErrStaleWebhook
	}

	key := []byte(s.Secret)
	if rest, ok := strings.CutPrefix(s.Secret, "whsec_"); ok {
		decoded, err := base64.StdEncoding.DecodeString(rest)
		if err != nil {
			return fmt.Errorf("decode webhook secret: %w", err)
		}
		key = decoded
	}

	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.", webhookID, timestamp)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	// The header may list several space-separated versioned signatures.
	for _, part := range strings.Fields(signatureHeader) {
		candidate, ok := strings.CutPrefix(part, "v1,")
		if !ok {
			continue
		}
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return nil
		}
	}
	return ErrBadSignature
}

// Apply advances the email status machine for one verified event. Events are
// idempotent by provider event id, never regress a status, and bump campaign
// aggregates only on the first occurrence per email.
func (s *WebhookService) Apply(eventID string, body []byte) (*ApplyResult, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, ErrMalformedHook
	}

	status, known := payload.Type.EmailStatus()
	if !known {
		// Providers add event types; acknowledge and move on.
		metrics.WebhookEvents.WithLabelValues(string(payload.Type), "ignored").Inc()
		return &ApplyResult{Outcome: "ignored"}, nil
	}
	if payload.Data.EmailID == "" {
		return nil, ErrMalformedHook
	}

	email, err := s.EmailRepo.GetByProviderMessageID(payload.Data.EmailID)
	if err != nil {
		return nil, err
	}
	if email == nil {
		// Unknown message ids are acknowledged and dropped.
		metrics.WebhookEvents.WithLabelValues(string(payload.Type), "unknown_message").Inc()
		s.Log.Debug().Str("provider_message_id", payload.Data.EmailID).Msg("webhook for unknown message")
		return &ApplyResult{Outcome: "unknown_message"}, nil
	}

	occurredAt := payload.CreatedAt
	if occurredAt.IsZero() {
		occurredAt = s.clock()
	}

	if err := s.applyEvent(email, payload.Type, status, occurredAt); err != nil {
		return nil, err
	}

	// Recorded last: an event whose side effects failed must come back as a
	// retry, not a duplicate. Re-applying is harmless, the guarded updates
	// fall through.
	fresh, err := s.EventRepo.Record(&model.WebhookEvent{
		EventID:           eventID,
		EventType:         payload.Type,
		ProviderMessageID: payload.Data.EmailID,
	})
	if err != nil {
		return nil, err
	}
	if !fresh {
		metrics.WebhookEvents.WithLabelValues(string(payload.Type), "duplicate").Inc()
		return &ApplyResult{Outcome: "duplicate", EmailID: email.ID}, nil
	}

	metrics.WebhookEvents.WithLabelValues(string(payload.Type), "applied").Inc()
	return &ApplyResult{Outcome: "applied", EmailID: email.ID}, nil
}

// statusesBefore lists the statuses an event may advance from.
func statusesBefore(to model.EmailStatus) []model.EmailStatus {
	ordered := []model.EmailStatus{
		model.EmailSent, model.EmailDelivered, model.EmailOpened, model.EmailClicked,
	}
	from := []model.EmailStatus{}
	for _, s := range ordered {
		if s.Advances(to) {
			from = append(from, s)
		}
	}
	return from
}

// counterFor maps advance-keyed events to the campaign aggregate they bump.
// Opens and clicks count off their own first-occurrence guards instead.
func counterFor(eventType model.WebhookEventType) string {
	switch eventType {
	case model.WebhookDelivered:
		return "delivered_count"
	case model.WebhookBounced:
		return "bounced_count"
	case model.WebhookComplained:
		return "complained_count"
	}
	return ""
}

func (s *WebhookService) applyEvent(email *model.Email, eventType model.WebhookEventType, status model.EmailStatus, at time.Time) error {
	advanced, err := s.EmailRepo.AdvanceStatus(email.ID, statusesBefore(status), status, counterFor(eventType))
	if err != nil {
		return err
	}

	// An open arriving after a click still counts the open; the first-occurrence
	// stamp, not the status advance, is the guard.
	switch eventType {
	case model.WebhookOpened:
		if _, err := s.EmailRepo.SetFirstOpened(email.ID, at); err != nil {
			return err
		}
	case model.WebhookClicked:
		if _, err := s.EmailRepo.SetFirstClicked(email.ID, at); err != nil {
			return err
		}
	}

	if advanced {
		s.Log.Info().
			Int("email_id", email.ID).
			Str("event", string(eventType)).
			Msg("delivery state advanced")
	}
	return nil
}
