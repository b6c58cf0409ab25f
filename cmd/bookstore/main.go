package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"bookstore/internal/clients"
	"bookstore/internal/inventory"
	"bookstore/internal/ledger"
	"bookstore/internal/logging"
	"bookstore/internal/purchasing"
	"bookstore/internal/server"
	"bookstore/internal/telemetry"

	"go.uber.org/zap"
)

type Config struct {
	HTTPPort           string
	LogLevel           string
	MailServiceURL     string
	ShippingServiceURL string
	DeliveryRate       float64
	OTLPEndpoint       string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:           getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MailServiceURL:     getEnv("MAIL_SERVICE_URL", ""),
		ShippingServiceURL: getEnv("SHIPPING_SERVICE_URL", ""),
		DeliveryRate:       getEnvFloat("DELIVERY_RATE_PER_SECOND", 10),
		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		RequestTimeout:     30 * time.Second,
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	shutdownTracing, err := telemetry.Setup(context.Background(), "bookstore", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}

	inv := inventory.NewService(inventory.WithLogger(logger))
	events := ledger.New()
	mailer, shipper := deliveryCollaborators(cfg, logger)
	svc := purchasing.NewService(inv, mailer, shipper,
		purchasing.WithLedger(events),
		purchasing.WithLogger(logger),
	)

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: server.NewRouter(server.Deps{
			Inventory:      inv,
			Purchasing:     svc,
			Ledger:         events,
			Logger:         logger,
			RequestTimeout: cfg.RequestTimeout,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("bookstore starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("failed to flush traces", zap.Error(err))
	}

	logger.Info("server exited")
}

// deliveryCollaborators picks HTTP clients for configured services and
// logging stand-ins for the rest.
func deliveryCollaborators(cfg *Config, logger *zap.Logger) (purchasing.Mailer, purchasing.Shipper) {
	clientCfg := clients.DefaultConfig()
	clientCfg.RatePerSecond = cfg.DeliveryRate

	var mailer purchasing.Mailer = clients.NewLogMailer(logger)
	if cfg.MailServiceURL != "" {
		mailer = clients.NewMailClient(cfg.MailServiceURL, clientCfg)
	}

	var shipper purchasing.Shipper = clients.NewLogShipper(logger)
	if cfg.ShippingServiceURL != "" {
		shipper = clients.NewShippingClient(cfg.ShippingServiceURL, clientCfg)
	}

	return mailer, shipper
}
