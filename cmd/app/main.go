package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/ticketline/config"
	"github.com/Domenick1991/ticketline/internal/bootstrap"
	"github.com/Domenick1991/ticketline/internal/cache"
	"github.com/Domenick1991/ticketline/internal/kafka"
	"github.com/Domenick1991/ticketline/internal/repository"
	"github.com/Domenick1991/ticketline/internal/service/ads"
	"github.com/Domenick1991/ticketline/internal/service/booking"
	"github.com/Domenick1991/ticketline/internal/service/catalog"
	"github.com/Domenick1991/ticketline/internal/service/identity"
	"github.com/Domenick1991/ticketline/internal/service/query"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api").Logger()

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

	if err := repository.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("migrate schema")
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Catalog.CacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	ticketRepo := repository.NewTicketRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)

	identityService := identity.NewIdentityService(roleRepo, logger)
	catalogService := catalog.NewCatalogService(ticketRepo, bookingRepo, redisCache, logger)
	bookingService := booking.NewBookingService(
		bookingRepo,
		ticketRepo,
		producer,
		cfg.Kafka.BookingTopic,
		logger,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	adsService := ads.NewAdsService(ticketRepo, redisCache, logger)
	queryService := query.NewQueryService(ticketRepo, bookingRepo, redisCache,
		cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize, logger)

	err = bootstrap.Run(ctx, cfg, logger, bootstrap.Deps{
		DB:       pool,
		Catalog:  catalogService,
		Booking:  bookingService,
		Ads:      adsService,
		Query:    queryService,
		Identity: identityService,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
