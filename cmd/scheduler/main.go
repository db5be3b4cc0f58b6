package main

import (
	"context"

	"github.com/mileusna/crontab"

	"github.com/unclebandit/outreach-backend/internal/cache"
	"github.com/unclebandit/outreach-backend/internal/commerce"
	"github.com/unclebandit/outreach-backend/internal/config"
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
	log := logger.New(cfg, "scheduler")

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer conn.Close()

	sendQueue, err := queue.NewAMQPQueue(cfg.AMQPURL, cfg.SendQueueName, log)
	if err != nil {
		log.Fatal().Err(err).Msg("queue connection failed")
	}
	defer sendQueue.Close()

	hotCache, err := cache.NewCustomerCache(cfg.RedisURL, cfg.CustomerCacheTTL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, sync runs without hot cache")
		hotCache = nil
	} else {
		defer hotCache.Close()
	}

	campaignRepo := &repository.CampaignRepository{DB: conn}
	emailRepo := &repository.EmailRepository{DB: conn}
	customerRepo := &repository.CustomerRepository{DB: conn}
	orderRepo := &repository.OrderRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}

	segmentService := &service.SegmentService{CustomerRepo: customerRepo, Config: cfg}
	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		EmailRepo:    emailRepo,
		TemplateRepo: templateRepo,
		Segments:     segmentService,
		Log:          log,
	}
	dispatchService := &service.DispatchService{
		CampaignRepo: campaignRepo,
		EmailRepo:    emailRepo,
		Campaigns:    campaignService,
		Queue:        sendQueue,
		Log:          log,
	}
	resendService := &service.ResendService{
		CampaignRepo: campaignRepo,
		EmailRepo:    emailRepo,
		Log:          log,
	}
	syncService := &service.SyncService{
		CustomerRepo: customerRepo,
		OrderRepo:    orderRepo,
		Sources:      commerceSources(cfg),
		HotCache:     hotCache,
		PageSize:     cfg.SyncPageSize,
		Log:          log,
	}

	ctab := crontab.New()

	ctab.MustAddJob("* * * * *", func() {
		if n, err := dispatchService.Tick(); err != nil {
			log.Error().Err(err).Msg("dispatch tick failed")
		} else if n > 0 {
			log.Info().Int("dispatched", n).Msg("dispatch tick")
		}
	})

	ctab.MustAddJob("*/10 * * * *", func() {
		if n, err := resendService.Run(); err != nil {
			log.Error().Err(err).Msg("resend pass failed")
		} else if n > 0 {
			log.Info().Int("created", n).Msg("resend pass")
		}
	})

	ctab.MustAddJob("0 * * * *", func() {
		result, err := syncService.Run(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("commerce sync failed")
			return
		}
		log.Info().
			Int("customers", result.Customers).
			Int("orders", result.Orders).
			Msg("commerce sync finished")
	})

	log.Info().Msg("scheduler running")
	select {}
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
