package service

import (
	"fmt"
	"strings"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

// missingValue replaces placeholders we have no data for so a half-rendered
// template is obvious in previews.
const missingValue = "N/A"

// RenderTemplate substitutes {{key}} placeholders with data values. Unknown
// placeholders are left intact; empty values render as missingValue.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		if v == "" {
			v = missingValue
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}
	return result
}

type TemplateService struct {
	TemplateRepo repository.TemplateRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	OrderRepo    repository.OrderRepositoryInterface
}

// PersonalizationData builds the per-recipient variable map from the cached
// customer row and their latest cached order.
func (s *TemplateService) PersonalizationData(customer *model.Customer) (map[string]string, error) {
	data := map[string]string{
		"first_name":   customer.FirstName,
		"last_name":    customer.LastName,
		"full_name":    customer.FullName(),
		"email":        customer.Email,
		"city":         customer.City,
		"total_orders": fmt.Sprintf("%d", customer.TotalOrders),
		"total_spent":  fmt.Sprintf("%.2f", customer.TotalSpent),
	}

	order, err := s.OrderRepo.LatestForCustomer(customer.Source, customer.ExternalID)
	if err != nil {
		return nil, err
	}
	if order != nil {
		data["last_order_number"] = order.Number
		data["last_order_total"] = fmt.Sprintf("%.2f %s", order.Total, order.Currency)
		data["last_order_date"] = order.PlacedAt.Format("January 2, 2006")
	} else {
		data["last_order_number"] = ""
		data["last_order_total"] = ""
		data["last_order_date"] = ""
	}

	return data, nil
}

// Render produces the subject and body for one recipient of a campaign.
// Resend rows carry their alternate subject already; pass it as subjectOverride.
func (s *TemplateService) Render(campaign *model.Campaign, customer *model.Customer, subjectOverride string) (subject, body string, err error) {
	tmpl, err := s.TemplateRepo.GetByID(campaign.TemplateID)
	if err != nil {
		return "", "", err
	}

	data, err := s.PersonalizationData(customer)
	if err != nil {
		return "", "", err
	}

	subjectTemplate := tmpl.Subject
	if campaign.Subject != "" {
		subjectTemplate = campaign.Subject
	}
	if subjectOverride != "" {
		subjectTemplate = subjectOverride
	}

	return RenderTemplate(subjectTemplate, data), RenderTemplate(tmpl.Body, data), nil
}

// RenderPreview renders a campaign's template against one customer, with an
// optional override body for dashboard editing.
func (s *TemplateService) RenderPreview(campaign *model.Campaign, customerID int, overrideBody *string) (string, error) {
	customer, err := s.CustomerRepo.GetByID(customerID)
	if err != nil {
		return "", err
	}
	if customer == nil {
		return "", appErrors.ErrCustomerNotFound
	}

	if overrideBody != nil && strings.TrimSpace(*overrideBody) != "" {
		data, err := s.PersonalizationData(customer)
		if err != nil {
			return "", err
		}
		return RenderTemplate(*overrideBody, data), nil
	}

	_, body, err := s.Render(campaign, customer, "")
	return body, err
}
