package purchasing

import (
	"context"

	"bookstore/internal/book"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

type metrics struct {
	purchases     metric.Int64Counter
	copies        metric.Int64Counter
	revenue       metric.Float64Counter
	compensations metric.Int64Counter
}

func newMetrics(meter metric.Meter, logger *zap.Logger) *metrics {
	fallback := noop.NewMeterProvider().Meter("bookstore/purchasing")
	m := &metrics{}
	var err error

	if m.purchases, err = meter.Int64Counter("bookstore.purchases",
		metric.WithDescription("Completed purchases")); err != nil {
		logger.Warn("purchases counter unavailable", zap.Error(err))
		m.purchases, _ = fallback.Int64Counter("bookstore.purchases")
	}
	if m.copies, err = meter.Int64Counter("bookstore.purchases.copies",
		metric.WithDescription("Copies sold")); err != nil {
		logger.Warn("copies counter unavailable", zap.Error(err))
		m.copies, _ = fallback.Int64Counter("bookstore.purchases.copies")
	}
	if m.revenue, err = meter.Float64Counter("bookstore.purchases.revenue",
		metric.WithDescription("Amount charged for completed purchases")); err != nil {
		logger.Warn("revenue counter unavailable", zap.Error(err))
		m.revenue, _ = fallback.Float64Counter("bookstore.purchases.revenue")
	}
	if m.compensations, err = meter.Int64Counter("bookstore.purchases.compensations",
		metric.WithDescription("Stock restorations after failed shipments")); err != nil {
		logger.Warn("compensations counter unavailable", zap.Error(err))
		m.compensations, _ = fallback.Int64Counter("bookstore.purchases.compensations")
	}
	return m
}

func (m *metrics) recordPurchase(ctx context.Context, kind book.Kind, quantity int, amount float64) {
	attrs := metric.WithAttributes(attribute.String("book.kind", string(kind)))
	m.purchases.Add(ctx, 1, attrs)
	m.copies.Add(ctx, int64(quantity), attrs)
	m.revenue.Add(ctx, amount, attrs)
}
