package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/yeremiapane/restaurant-orders/config"
	"github.com/yeremiapane/restaurant-orders/invoice"
	"github.com/yeremiapane/restaurant-orders/kds"
	"github.com/yeremiapane/restaurant-orders/middlewares"
	"github.com/yeremiapane/restaurant-orders/notification"
	"github.com/yeremiapane/restaurant-orders/router"
	"github.com/yeremiapane/restaurant-orders/services"
	"github.com/yeremiapane/restaurant-orders/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	utils.InitLogger(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		utils.ErrorLogger.Warn("JWT_SECRET is not set, using the built-in development key")
	}
	utils.SetJWTSecret(cfg.JWTSecret)

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize DB
	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := config.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Info("AutoMigrate completed.")

	hub := kds.NewHub()
	defer hub.Close()

	relay := services.NewEventRelay(db, hub)
	relay.Interval = cfg.RelayInterval
	relay.MaxAttempts = cfg.RelayMaxAttempts

	renderer := invoice.NewRenderer(invoice.Header{
		Name:    cfg.RestaurantName,
		Address: cfg.RestaurantAddress,
		Phone:   cfg.RestaurantPhone,
	})

	var sender notification.Sender = notification.LogSender{}
	if cfg.AMQPURL != "" {
		amqpSender, err := notification.DialAMQP(cfg.AMQPURL, cfg.NotifyExchange)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer amqpSender.Close()
		sender = amqpSender
	} else {
		utils.InfoLogger.Info("AMQP_URL not set, invoices are logged instead of published")
	}

	orders := services.NewOrderService(db, relay, notification.NewDispatcher(renderer, sender))

	r := router.SetupRouter(router.Dependencies{
		Orders:        orders,
		Hub:           hub,
		Renderer:      renderer,
		RateLimiter:   middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		AllowedOrigin: cfg.AllowedOrigin,
	})
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		utils.ErrorLogger.Fatalf("Failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.InfoLogger.Infof("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		utils.InfoLogger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		utils.ErrorLogger.Errorf("server stopped: %v", err)
	}
}
