package main

import (
	"context"
	"log"
	"os"
	"time"

	"bookstore/internal/chaos"
	"bookstore/internal/clients"
	"bookstore/internal/inventory"
	"bookstore/internal/ledger"
	"bookstore/internal/logging"
	"bookstore/internal/purchasing"

	"go.uber.org/zap"
)

func main() {
	logger, err := logging.New(getEnv("LOG_LEVEL", "warn"))
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	target := chaos.Target{
		Inventory:     inventory.NewService(inventory.WithLogger(logger)),
		Ledger:        ledger.New(),
		ShippingFault: &chaos.Fault{},
		MailFault:     &chaos.Fault{},
	}
	target.Purchasing = purchasing.NewService(target.Inventory,
		chaos.NewFaultyMailer(clients.NewLogMailer(logger), target.MailFault),
		chaos.NewFaultyShipper(clients.NewLogShipper(logger), target.ShippingFault),
		purchasing.WithLedger(target.Ledger),
		purchasing.WithLogger(logger),
	)

	engine := chaos.NewEngine(logger)
	if err := engine.RegisterExperiments(target); err != nil {
		logger.Fatal("failed to register experiments", zap.Error(err))
	}

	scenarios := engine.Experiments()
	if d, err := time.ParseDuration(os.Getenv("CHAOS_DURATION")); err == nil && d > 0 {
		for i := range scenarios {
			scenarios[i].Duration = d
		}
	}

	gameDay := chaos.GameDay{
		Name:      "Bookstore Chaos Game Day",
		Date:      time.Now(),
		Scenarios: scenarios,
		Pause:     time.Second,
	}

	if err := engine.ExecuteGameDay(context.Background(), gameDay, os.Stdout); err != nil {
		logger.Fatal("chaos game day failed", zap.Error(err))
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
