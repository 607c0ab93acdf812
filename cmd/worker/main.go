package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/ticketline/config"
	"github.com/Domenick1991/ticketline/internal/email"
	"github.com/Domenick1991/ticketline/internal/kafka"
	"github.com/Domenick1991/ticketline/internal/repository"
	"github.com/Domenick1991/ticketline/internal/service/ads"
	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	kafkaGo "github.com/segmentio/kafka-go"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "worker").Logger()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	ticketRepo := repository.NewTicketRepository(pool)
	adsService := ads.NewAdsService(ticketRepo, nil, logger)

	sender, err := email.NewSender(cfg.SMTP, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("smtp setup")
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	go func() {
		err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.BookingEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				logger.Warn().Err(err).Msg("skipping undecodable event")
				return nil
			}
			return sender.Send(ctx, event)
		})
		if err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("consumer stopped")
		}
	}()

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler setup")
	}

	sweepEvery := time.Duration(cfg.Worker.AdSweepMinutes) * time.Minute
	if sweepEvery <= 0 {
		sweepEvery = 15 * time.Minute
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(sweepEvery),
		gocron.NewTask(func() {
			ids, err := adsService.ReconcileExpired(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("advertisement sweep failed")
				return
			}
			if len(ids) > 0 {
				logger.Info().Int("count", len(ids)).Msg("advertisement sweep done")
			}
		}),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("schedule advertisement sweep")
	}

	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Warn().Err(err).Msg("scheduler shutdown")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
}
