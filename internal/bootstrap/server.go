package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/ticketline/api"
	"github.com/Domenick1991/ticketline/config"
	"github.com/Domenick1991/ticketline/internal/service/ads"
	"github.com/Domenick1991/ticketline/internal/service/booking"
	"github.com/Domenick1991/ticketline/internal/service/catalog"
	"github.com/Domenick1991/ticketline/internal/service/identity"
	"github.com/Domenick1991/ticketline/internal/service/query"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/sync/errgroup"
)

type Deps struct {
	DB       *pgxpool.Pool
	Catalog  catalog.CatalogUseCase
	Booking  booking.BookingUseCase
	Ads      ads.AdsUseCase
	Query    query.QueryUseCase
	Identity identity.IdentityUseCase
}

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, log zerolog.Logger, deps Deps) error {
	api.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.HTTP.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		if err := deps.DB.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.HTTP.OpenAPIFile != "" {
		router.StaticFile("/openapi.json", cfg.HTTP.OpenAPIFile)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.json"))))
	}

	ticketHandler := api.NewTicketHandler(deps.Catalog, deps.Ads, deps.Query)
	bookingHandler := api.NewBookingHandler(deps.Booking, deps.Query)
	roleHandler := api.NewRoleHandler(deps.Identity)

	ticketHandler.RegisterPublic(router.Group("/tickets"))

	authed := router.Group("/", api.Auth(cfg.Auth.JWTSecret, deps.Identity))
	ticketHandler.Register(authed.Group("/tickets"))
	bookingHandler.Register(authed.Group("/bookings"))
	roleHandler.Register(authed.Group("/users"))

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("address", cfg.HTTP.Address).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})
	return g.Wait()
}
