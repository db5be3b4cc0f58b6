package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const resendBaseURL = "https://api.resend.com"

// ResendClient delivers transactional email through the Resend REST API.
type ResendClient struct {
	http *resty.Client
}

func NewResendClient(apiKey string) *ResendClient {
	client := resty.New().
		SetBaseURL(resendBaseURL).
		SetAuthToken(apiKey).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &ResendClient{http: client}
}

type resendSendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Tags    []resendTag `json:"tags,omitempty"`
}

type resendTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type resendSendResponse struct {
	ID string `json:"id"`
}

func (c *ResendClient) Send(ctx context.Context, email OutboundEmail) (string, error) {
	from := email.From
	if email.FromName != "" {
		from = fmt.Sprintf("%s <%s>", email.FromName, email.From)
	}

	body := resendSendRequest{
		From:    from,
		To:      []string{email.To},
		Subject: email.Subject,
		HTML:    email.HTML,
		Tags: []resendTag{
			{Name: "campaign_id", Value: fmt.Sprintf("%d", email.CampaignID)},
		},
	}

	var out resendSendResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/emails")
	if err != nil {
		return "", fmt.Errorf("resend send: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("resend send: status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.ID == "" {
		return "", fmt.Errorf("resend send: empty message id")
	}
	return out.ID, nil
}

var _ Sender = (*ResendClient)(nil)
