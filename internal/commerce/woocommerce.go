package commerce

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/unclebandit/outreach-backend/internal/model"
)

// WooClient pages the WooCommerce v3 REST API using consumer key auth.
type WooClient struct {
	http *resty.Client
}

func NewWooClient(baseURL, consumerKey, consumerSecret string) *WooClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetQueryParam("consumer_key", consumerKey).
		SetQueryParam("consumer_secret", consumerSecret).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second)

	return &WooClient{http: client}
}

func (c *WooClient) Name() string { return model.SourceWooCommerce }

type wooCustomer struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Billing   struct {
		Phone string `json:"phone"`
		City  string `json:"city"`
	} `json:"billing"`
}

type wooOrder struct {
	ID          int    `json:"id"`
	Number      string `json:"number"`
	CustomerID  int    `json:"customer_id"`
	Status      string `json:"status"`
	Total       string `json:"total"`
	Currency    string `json:"currency"`
	DateCreated string `json:"date_created_gmt"`
}

func (c *WooClient) FetchCustomers(ctx context.Context, page, pageSize int) ([]*model.Customer, error) {
	var raw []wooCustomer
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":     strconv.Itoa(page),
			"per_page": strconv.Itoa(pageSize),
		}).
		SetResult(&raw).
		Get("/wp-json/wc/v3/customers")
	if err != nil {
		return nil, fmt.Errorf("woocommerce customers page %d: %w", page, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("woocommerce customers page %d: status %d", page, resp.StatusCode())
	}

	customers := make([]*model.Customer, 0, len(raw))
	for _, w := range raw {
		customers = append(customers, &model.Customer{
			ExternalID: strconv.Itoa(w.ID),
			Source:     model.SourceWooCommerce,
			Email:      w.Email,
			FirstName:  w.FirstName,
			LastName:   w.LastName,
			Phone:      w.Billing.Phone,
			City:       w.Billing.City,
		})
	}
	return customers, nil
}

func (c *WooClient) FetchOrders(ctx context.Context, page, pageSize int) ([]*model.Order, error) {
	var raw []wooOrder
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":     strconv.Itoa(page),
			"per_page": strconv.Itoa(pageSize),
		}).
		SetResult(&raw).
		Get("/wp-json/wc/v3/orders")
	if err != nil {
		return nil, fmt.Errorf("woocommerce orders page %d: %w", page, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("woocommerce orders page %d: status %d", page, resp.StatusCode())
	}

	orders := make([]*model.Order, 0, len(raw))
	for _, w := range raw {
		placedAt, err := time.Parse("2006-01-02T15:04:05", w.DateCreated)
		if err != nil {
			continue
		}
		total, _ := strconv.ParseFloat(w.Total, 64)
		orders = append(orders, &model.Order{
			ExternalID:         strconv.Itoa(w.ID),
			Source:             model.SourceWooCommerce,
			CustomerExternalID: strconv.Itoa(w.CustomerID),
			Number:             w.Number,
			Status:             w.Status,
			Total:              total,
			Currency:           w.Currency,
			PlacedAt:           placedAt,
		})
	}
	return orders, nil
}

var _ Source = (*WooClient)(nil)
