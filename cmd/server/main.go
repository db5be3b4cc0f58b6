package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unclebandit/outreach-backend/internal/cache"
	"github.com/unclebandit/outreach-backend/internal/commerce"
	"github.com/unclebandit/outreach-backend/internal/config"
	"github.com/unclebandit/outreach-backend/internal/controller"
	"github.com/unclebandit/outreach-backend/internal/db"
	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/repository"
	"github.com/unclebandit/outreach-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg, "server")

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer conn.Close()

	if err := db.Migrate(conn, cfg.MigrationsDir, log); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	sendQueue, err := queue.NewAMQPQueue(cfg.AMQPURL, cfg.SendQueueName, log)
	if err != nil {
		log.Fatal().Err(err).Msg("queue connection failed")
	}
	defer sendQueue.Close()

	hotCache, err := cache.NewCustomerCache(cfg.RedisURL, cfg.CustomerCacheTTL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, chatbot lookups fall back to postgres")
		hotCache = nil
	} else {
		defer hotCache.Close()
	}

	campaignRepo := &repository.CampaignRepository{DB: conn}
	emailRepo := &repository.EmailRepository{DB: conn}
	customerRepo := &repository.CustomerRepository{DB: conn}
	orderRepo := &repository.OrderRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}
	conversationRepo := &repository.ConversationRepository{DB: conn}
	eventRepo := &repository.WebhookEventRepository{DB: conn}

	segmentService := &service.SegmentService{CustomerRepo: customerRepo, Config: cfg}
	templateService := &service.TemplateService{
		TemplateRepo: templateRepo,
		CustomerRepo: customerRepo,
		OrderRepo:    orderRepo,
	}
	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		EmailRepo:    emailRepo,
		TemplateRepo: templateRepo,
		Segments:     segmentService,
		Log:          log,
	}
	webhookService := &service.WebhookService{
		EmailRepo: emailRepo,
		EventRepo: eventRepo,
		Secret:    cfg.ResendWebhookSecret,
		Tolerance: cfg.WebhookTolerance,
		Log:       log,
	}
	conversationService := &service.ConversationService{
		ConversationRepo: conversationRepo,
		CustomerRepo:     customerRepo,
		HotCache:         hotCache,
		Log:              log,
	}
	syncService := &service.SyncService{
		CustomerRepo: customerRepo,
		OrderRepo:    orderRepo,
		Sources:      commerceSources(cfg),
		HotCache:     hotCache,
		PageSize:     cfg.SyncPageSize,
		Log:          log,
	}

	campaignController := &controller.CampaignController{
		Campaigns: campaignService,
		Templates: templateService,
	}
	templateController := &controller.TemplateController{TemplateRepo: templateRepo}
	segmentController := &controller.SegmentController{Segments: segmentService}
	conversationController := &controller.ConversationController{Conversations: conversationService}
	webhookController := &controller.WebhookController{Webhooks: webhookService, Log: log}
	syncController := &controller.SyncController{Sync: syncService}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", campaignController.Create)
		r.Get("/", campaignController.List)
		r.Get("/{id}", campaignController.Get)
		r.Put("/{id}", campaignController.Update)
		r.Post("/{id}/schedule", campaignController.Schedule)
		r.Post("/{id}/send", campaignController.Send)
		r.Post("/{id}/pause", campaignController.Pause)
		r.Post("/{id}/resume", campaignController.Resume)
		r.Post("/{id}/cancel", campaignController.Cancel)
		r.Post("/{id}/personalized-preview", campaignController.Preview)
	})

	r.Route("/templates", func(r chi.Router) {
		r.Post("/", templateController.Create)
		r.Get("/", templateController.List)
		r.Get("/{id}", templateController.Get)
		r.Put("/{id}", templateController.Update)
		r.Delete("/{id}", templateController.Delete)
	})

	r.Route("/segments", func(r chi.Router) {
		r.Get("/", segmentController.List)
		r.Get("/{name}/preview", segmentController.Preview)
	})

	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", conversationController.Create)
		r.Get("/", conversationController.List)
		r.Get("/customer-context", conversationController.CustomerContext)
		r.Get("/{id}", conversationController.Get)
		r.Post("/{id}/close", conversationController.Close)
		r.Post("/{id}/messages", conversationController.AppendMessage)
		r.Get("/{id}/messages", conversationController.Messages)
	})

	r.Post("/webhooks/resend", webhookController.HandleResend)
	r.Post("/sync/run", syncController.Trigger)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	log.Info().Str("addr", addr).Msg("server listening")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func commerceSources(cfg *config.Config) []commerce.Source {
	sources := []commerce.Source{}
	if cfg.Cin7APIKey != "" {
		sources = append(sources, commerce.NewCin7Client(cfg.Cin7BaseURL, cfg.Cin7APIUsername, cfg.Cin7APIKey))
	}
	if cfg.WooBaseURL != "" {
		sources = append(sources, commerce.NewWooClient(cfg.WooBaseURL, cfg.WooConsumerKey, cfg.WooConsumerSecret))
	}
	return sources
}
