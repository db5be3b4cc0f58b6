package commerce

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/unclebandit/outreach-backend/internal/model"
)

// Cin7Client pages the Cin7 v1 REST API.
type Cin7Client struct {
	http *resty.Client
}

func NewCin7Client(baseURL, username, apiKey string) *Cin7Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(username, apiKey).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second)

	return &Cin7Client{http: client}
}

func (c *Cin7Client) Name() string { return model.SourceCin7 }

type cin7Contact struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
}

type cin7SalesOrder struct {
	ID           int     `json:"id"`
	Reference    string  `json:"reference"`
	MemberID     int     `json:"memberId"`
	Status       string  `json:"status"`
	Total        float64 `json:"total"`
	CurrencyCode string  `json:"currencyCode"`
	CreatedDate  string  `json:"createdDate"`
}

func (c *Cin7Client) FetchCustomers(ctx context.Context, page, pageSize int) ([]*model.Customer, error) {
	var contacts []cin7Contact
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page": strconv.Itoa(page),
			"rows": strconv.Itoa(pageSize),
		}).
		SetResult(&contacts).
		Get("/v1/Contacts")
	if err != nil {
		return nil, fmt.Errorf("cin7 contacts page %d: %w", page, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cin7 contacts page %d: status %d", page, resp.StatusCode())
	}

	customers := make([]*model.Customer, 0, len(contacts))
	for _, contact := range contacts {
		customers = append(customers, &model.Customer{
			ExternalID: strconv.Itoa(contact.ID),
			Source:     model.SourceCin7,
			Email:      contact.Email,
			FirstName:  contact.FirstName,
			LastName:   contact.LastName,
			Phone:      contact.Phone,
			City:       contact.City,
		})
	}
	return customers, nil
}

func (c *Cin7Client) FetchOrders(ctx context.Context, page, pageSize int) ([]*model.Order, error) {
	var raw []cin7SalesOrder
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page": strconv.Itoa(page),
			"rows": strconv.Itoa(pageSize),
		}).
		SetResult(&raw).
		Get("/v1/SalesOrders")
	if err != nil {
		return nil, fmt.Errorf("cin7 orders page %d: %w", page, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cin7 orders page %d: status %d", page, resp.StatusCode())
	}

	orders := make([]*model.Order, 0, len(raw))
	for _, o := range raw {
		placedAt, err := time.Parse(time.RFC3339, o.CreatedDate)
		if err != nil {
			// Cin7 sometimes omits the zone suffix.
			placedAt, err = time.Parse("2006-01-02T15:04:05", o.CreatedDate)
			if err != nil {
				continue
			}
		}
		currency := o.CurrencyCode
		if currency == "" {
			currency = "USD"
		}
		orders = append(orders, &model.Order{
			ExternalID:         strconv.Itoa(o.ID),
			Source:             model.SourceCin7,
			CustomerExternalID: strconv.Itoa(o.MemberID),
			Number:             o.Reference,
			Status:             o.Status,
			Total:              o.Total,
			Currency:           currency,
			PlacedAt:           placedAt,
		})
	}
	return orders, nil
}

var _ Source = (*Cin7Client)(nil)
