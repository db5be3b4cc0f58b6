package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
)

func TestRenderTemplate(t *testing.T) {
	data := map[string]string{
		"first_name": "Amara",
		"city":       "",
	}

	out := RenderTemplate("Hi {{first_name}} from {{city}}, {{mystery}}!", data)
	assert.Equal(t, "Hi Amara from N/A, {{mystery}}!", out)
}

func newTemplateServiceForTest() (*TemplateService, *templateRepoMock, *customerRepoMock, *orderRepoMock) {
	templates := newTemplateRepoMock()
	customers := newCustomerRepoMock()
	orders := newOrderRepoMock()
	return &TemplateService{
		TemplateRepo: templates,
		CustomerRepo: customers,
		OrderRepo:    orders,
	}, templates, customers, orders
}

func TestPersonalizationData(t *testing.T) {
	svc, _, _, orders := newTemplateServiceForTest()

	customer := &model.Customer{
		ID:          7,
		ExternalID:  "ext-7",
		Source:      model.SourceWooCommerce,
		Email:       "amara@example.com",
		FirstName:   "Amara",
		LastName:    "Okafor",
		City:        "Nairobi",
		TotalOrders: 3,
		TotalSpent:  450.5,
	}
	placed := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	orders.Upsert(&model.Order{
		Source:             model.SourceWooCommerce,
		CustomerExternalID: "ext-7",
		Number:             "WC-2041",
		Total:              120,
		Currency:           "KES",
		PlacedAt:           placed,
	})

	data, err := svc.PersonalizationData(customer)
	require.NoError(t, err)

	assert.Equal(t, "Amara", data["first_name"])
	assert.Equal(t, "Amara Okafor", data["full_name"])
	assert.Equal(t, "3", data["total_orders"])
	assert.Equal(t, "450.50", data["total_spent"])
	assert.Equal(t, "WC-2041", data["last_order_number"])
	assert.Equal(t, "120.00 KES", data["last_order_total"])
	assert.Equal(t, "March 14, 2026", data["last_order_date"])
}

func TestPersonalizationDataNoOrders(t *testing.T) {
	svc, _, _, _ := newTemplateServiceForTest()

	data, err := svc.PersonalizationData(&model.Customer{ID: 1, ExternalID: "x", Source: model.SourceCin7})
	require.NoError(t, err)

	// Empty values render as the missing marker downstream.
	assert.Equal(t, "", data["last_order_number"])
	out := RenderTemplate("Order {{last_order_number}}", data)
	assert.Equal(t, "Order N/A", out)
}

func TestRenderSubjectPrecedence(t *testing.T) {
	svc, templates, _, _ := newTemplateServiceForTest()

	tmpl := &model.Template{Subject: "Template subject", Body: "Hello {{first_name}}"}
	require.NoError(t, templates.Create(tmpl))

	campaign := &model.Campaign{TemplateID: tmpl.ID}
	customer := &model.Customer{FirstName: "Jonas"}

	subject, body, err := svc.Render(campaign, customer, "")
	require.NoError(t, err)
	assert.Equal(t, "Template subject", subject)
	assert.Equal(t, "Hello Jonas", body)

	campaign.Subject = "Campaign subject"
	subject, _, err = svc.Render(campaign, customer, "")
	require.NoError(t, err)
	assert.Equal(t, "Campaign subject", subject)

	subject, _, err = svc.Render(campaign, customer, "Still there, {{first_name}}?")
	require.NoError(t, err)
	assert.Equal(t, "Still there, Jonas?", subject)
}

func TestRenderPreview(t *testing.T) {
	svc, templates, customers, _ := newTemplateServiceForTest()

	tmpl := &model.Template{Subject: "s", Body: "Hi {{first_name}}"}
	require.NoError(t, templates.Create(tmpl))
	customers.Upsert(&model.Customer{ID: 3, FirstName: "Lucia", ExternalID: "e", Source: model.SourceCin7})

	campaign := &model.Campaign{TemplateID: tmpl.ID}

	body, err := svc.RenderPreview(campaign, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hi Lucia", body)

	override := "Edited {{first_name}}"
	body, err = svc.RenderPreview(campaign, 3, &override)
	require.NoError(t, err)
	assert.Equal(t, "Edited Lucia", body)

	_, err = svc.RenderPreview(campaign, 99, nil)
	assert.ErrorIs(t, err, appErrors.ErrCustomerNotFound)
}
