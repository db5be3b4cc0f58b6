package main

import (
	"context"

	"github.com/unclebandit/outreach-backend/internal/config"
	"github.com/unclebandit/outreach-backend/internal/db"
	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/provider"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/repository"
	"github.com/unclebandit/outreach-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg, "worker")

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

	var tracker service.EventTracker
	if cfg.KlaviyoAPIKey != "" {
		tracker = provider.NewKlaviyoClient(cfg.KlaviyoAPIKey, log)
	}

	worker := &service.Worker{
		CampaignRepo: &repository.CampaignRepository{DB: conn},
		CustomerRepo: &repository.CustomerRepository{DB: conn},
		EmailRepo:    &repository.EmailRepository{DB: conn},
		Templates: &service.TemplateService{
			TemplateRepo: &repository.TemplateRepository{DB: conn},
			CustomerRepo: &repository.CustomerRepository{DB: conn},
			OrderRepo:    &repository.OrderRepository{DB: conn},
		},
		Sender:    provider.NewResendClient(cfg.ResendAPIKey),
		Tracker:   tracker,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
		Log:       log,
	}

	log.Info().Str("queue", cfg.SendQueueName).Msg("worker consuming")
	err = sendQueue.Consume(func(job queue.SendJob, attempt int) error {
		err := worker.Process(context.Background(), job, attempt)
		if err != nil && attempt >= cfg.WorkerMaxRetries {
			worker.MarkExhausted(job, err)
		}
		return err
	}, cfg.WorkerMaxRetries)
	if err != nil {
		log.Fatal().Err(err).Msg("consumer stopped")
	}
}
