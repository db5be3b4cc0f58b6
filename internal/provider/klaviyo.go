package provider

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const klaviyoBaseURL = "https://a.klaviyo.com/api"

// KlaviyoClient mirrors campaign send events into Klaviyo so marketing
// profiles stay in step with the outreach pipeline. It is best-effort: a
// failed mirror never fails the send.
type KlaviyoClient struct {
	http *resty.Client
	log  zerolog.Logger
}

func NewKlaviyoClient(apiKey string, log zerolog.Logger) *KlaviyoClient {
	client := resty.New().
		SetBaseURL(klaviyoBaseURL).
		SetHeader("Authorization", "Klaviyo-API-Key "+apiKey).
		SetHeader("revision", "2024-10-15").
		SetTimeout(10 * time.Second)

	return &KlaviyoClient{http: client, log: log}
}

type klaviyoEvent struct {
	Data klaviyoEventData `json:"data"`
}

type klaviyoEventData struct {
	Type       string                 `json:"type"`
	Attributes klaviyoEventAttributes `json:"attributes"`
}

type klaviyoEventAttributes struct {
	Metric     map[string]any `json:"metric"`
	Profile    map[string]any `json:"profile"`
	Properties map[string]any `json:"properties"`
	Time       time.Time      `json:"time"`
}

// TrackSend records a "Campaign Email Sent" metric against the recipient's
// Klaviyo profile.
func (c *KlaviyoClient) TrackSend(ctx context.Context, recipient string, campaignID int, subject string) {
	event := klaviyoEvent{
		Data: klaviyoEventData{
			Type: "event",
			Attributes: klaviyoEventAttributes{
				Metric: map[string]any{
					"data": map[string]any{
						"type":       "metric",
						"attributes": map[string]any{"name": "Campaign Email Sent"},
					},
				},
				Profile: map[string]any{
					"data": map[string]any{
						"type":       "profile",
						"attributes": map[string]any{"email": recipient},
					},
				},
				Properties: map[string]any{
					"campaign_id": campaignID,
					"subject":     subject,
				},
				Time: time.Now().UTC(),
			},
		},
	}

	resp, err := c.http.R().SetContext(ctx).SetBody(event).Post("/events/")
	if err != nil {
		c.log.Warn().Err(err).Str("recipient", recipient).Msg("klaviyo event failed")
		return
	}
	if resp.IsError() {
		c.log.Warn().
			Int("status", resp.StatusCode()).
			Str("recipient", recipient).
			Msgf("klaviyo event rejected: %s", resp.String())
	}
}
