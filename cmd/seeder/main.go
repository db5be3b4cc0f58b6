package main

import (
	"fmt"
	"time"

	"github.com/unclebandit/outreach-backend/internal/config"
	"github.com/unclebandit/outreach-backend/internal/db"
	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

// Seeds a demo template, a handful of cached customers with order history,
// and a draft dry-run campaign to exercise the pipeline locally.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg, "seeder")

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer conn.Close()

	if err := db.Migrate(conn, cfg.MigrationsDir, log); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	templateRepo := &repository.TemplateRepository{DB: conn}
	customerRepo := &repository.CustomerRepository{DB: conn}
	orderRepo := &repository.OrderRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}

	template := &model.Template{
		Name:    "winter-restock",
		Subject: "{{first_name}}, your favourites are back in stock",
		Body: "<p>Hi {{first_name}},</p>" +
			"<p>Thanks for your order {{last_order_number}}. " +
			"We have just restocked the range you shopped from.</p>" +
			"<p>See you soon,<br>The team</p>",
	}
	if err := templateRepo.Create(template); err != nil {
		log.Fatal().Err(err).Msg("seed template failed")
	}
	log.Info().Int("template_id", template.ID).Msg("seeded template")

	customers := []*model.Customer{
		{ExternalID: "seed-1001", Source: model.SourceWooCommerce, Email: "amara@example.com", FirstName: "Amara", LastName: "Okafor", City: "Nairobi"},
		{ExternalID: "seed-1002", Source: model.SourceWooCommerce, Email: "jonas@example.com", FirstName: "Jonas", LastName: "Mwangi", City: "Mombasa"},
		{ExternalID: "seed-1003", Source: model.SourceCin7, Email: "lucia@example.com", FirstName: "Lucia", LastName: "Wanjiru", City: "Kisumu"},
		{ExternalID: "seed-1004", Source: model.SourceCin7, Email: "david@example.com", FirstName: "David", LastName: "Otieno", City: "Nakuru"},
	}
	for _, c := range customers {
		if err := customerRepo.Upsert(c); err != nil {
			log.Fatal().Err(err).Str("email", c.Email).Msg("seed customer failed")
		}
	}
	log.Info().Int("count", len(customers)).Msg("seeded customers")

	now := time.Now()
	orders := []*model.Order{
		{ExternalID: "seed-o-1", Source: model.SourceWooCommerce, CustomerExternalID: "seed-1001", Number: "WC-2041", Status: "completed", Total: 640.00, Currency: "KES", PlacedAt: now.AddDate(0, 0, -12)},
		{ExternalID: "seed-o-2", Source: model.SourceWooCommerce, CustomerExternalID: "seed-1002", Number: "WC-2042", Status: "completed", Total: 85.50, Currency: "KES", PlacedAt: now.AddDate(0, -4, 0)},
		{ExternalID: "seed-o-3", Source: model.SourceCin7, CustomerExternalID: "seed-1003", Number: "SO-311", Status: "DISPATCHED", Total: 120.00, Currency: "KES", PlacedAt: now.AddDate(0, 0, -5)},
	}
	for _, o := range orders {
		if err := orderRepo.Upsert(o); err != nil {
			log.Fatal().Err(err).Str("number", o.Number).Msg("seed order failed")
		}
	}
	if err := customerRepo.RefreshAggregates(); err != nil {
		log.Fatal().Err(err).Msg("refresh aggregates failed")
	}
	log.Info().Int("count", len(orders)).Msg("seeded orders")

	campaign := &model.Campaign{
		Name:             "Demo winter restock",
		Description:      "Dry-run campaign for local testing",
		Segment:          string(model.SegmentAll),
		TemplateID:       template.ID,
		RateLimitPerHour: 50,
		DryRun:           true,
		ResendEnabled:    true,
		ResendDelayHours: 48,
		ResendSubject:    "Still thinking it over, {{first_name}}?",
	}
	if err := campaignRepo.Create(campaign); err != nil {
		log.Fatal().Err(err).Msg("seed campaign failed")
	}

	fmt.Printf("seeded: template=%d campaign=%d customers=%d orders=%d\n",
		template.ID, campaign.ID, len(customers), len(orders))
}
