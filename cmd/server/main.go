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
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dispatch/internal/app"
	"dispatch/internal/config"
	"dispatch/internal/events"
	"dispatch/internal/geo"
	"dispatch/internal/handler"
	"dispatch/internal/observability"
	internalRedis "dispatch/internal/redis"
	"dispatch/internal/service"
)

func main() {
	config.LoadDotEnvUp(6)
	cfg := config.Load()

	logger, err := observability.NewLogger(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		// Fall back to a production logger when LOG_LEVEL is malformed.
		logger, _ = zap.NewProduction()
		logger.Warn("invalid log level, using default", zap.String("level", cfg.App.LogLevel))
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	stores, err := app.NewStores(ctx, cfg, nrApp, logger)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer stores.Close()

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := events.NewHub(logger)
	go hub.Run(runCtx)

	notifiers := []events.Notifier{events.NewLogNotifier(logger), hub}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
		logger.Info("publishing events to kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	var geocoder geo.Geocoder
	if cfg.Maps.APIKey != "" {
		g, err := geo.NewGoogleGeocoder(cfg.Maps.APIKey)
		if err != nil {
			logger.Warn("geocoding disabled", zap.Error(err))
		} else {
			geocoder = g
		}
	}

	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := wireServer(wireDeps{
		cfg:         cfg,
		stores:      stores,
		redisClient: redisClient,
		nrApp:       nrApp,
		logger:      logger,
		hub:         hub,
		notifier:    events.NewFanout(logger, notifiers...),
		geocoder:    geocoder,
	})

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	stop()

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

type wireDeps struct {
	cfg         *config.Config
	stores      *app.Stores
	redisClient *redis.Client
	nrApp       *newrelic.Application
	logger      *zap.Logger
	hub         *events.Hub
	notifier    events.Notifier
	geocoder    geo.Geocoder
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(d wireDeps) *http.Server {
	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(d.redisClient)
	lockStore := internalRedis.NewLockStore(d.redisClient)
	cacheStore := internalRedis.NewCacheStore(d.redisClient)

	// Initialize services.
	companyService := service.NewCompanyService(d.stores.Companies, cacheStore, d.geocoder, d.notifier)
	riderService := service.NewRiderService(
		d.stores.Riders,
		d.stores.Orders,
		companyService,
		locationStore,
		cacheStore,
		d.geocoder,
		d.notifier,
	)
	assignmentService := service.NewAssignmentService(
		d.stores.Riders,
		d.stores.Assignments,
		lockStore,
		cacheStore,
		locationStore,
	)
	orderService := service.NewOrderService(service.OrderServiceDeps{
		OrderRepo:     d.stores.Orders,
		RiderRepo:     d.stores.Riders,
		AssignRepo:    d.stores.Assignments,
		Matcher:       assignmentService,
		Companies:     companyService,
		LocationStore: locationStore,
		CacheStore:    cacheStore,
		Geocoder:      d.geocoder,
		Notifier:      d.notifier,
	})

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		CompanyHandler: handler.NewCompanyHandler(companyService, riderService, orderService),
		RiderHandler:   handler.NewRiderHandler(riderService),
		OrderHandler:   handler.NewOrderHandler(orderService),
		LegacyHandler:  handler.NewLegacyHandler(companyService, riderService, orderService),
		FeedHandler:    handler.NewFeedHandler(d.hub),
		RedisClient:    d.redisClient,
		NewRelicApp:    d.nrApp,
		Logger:         d.logger,
		RateLimitRPS:   d.cfg.Server.RateLimitRPS,
		CORSOrigins:    d.cfg.Server.CORSOrigins,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + d.cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  d.cfg.Server.ReadTimeout,
		WriteTimeout: d.cfg.Server.WriteTimeout,
	}
}
