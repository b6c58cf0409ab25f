// internal/purchasing/implementation.go
package purchasing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookstore/internal/book"
	"bookstore/internal/inventory"
	"bookstore/internal/ledger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrShippingFailed = errors.New("failed to ship book")
	ErrDeliveryFailed = errors.New("failed to send electronic book")
	ErrNotSellable    = errors.New("book is not for sale")
)

// service implements the Service interface.
type service struct {
	inventory inventory.Service
	mailer    Mailer
	shipper   Shipper
	ledger    *ledger.Ledger
	logger    *zap.Logger
	tracer    trace.Tracer
	metrics   *metrics
}

// Option configures the purchasing service.
type Option func(*service)

// WithLedger records purchases and compensations in l.
func WithLedger(l *ledger.Ledger) Option {
	return func(s *service) { s.ledger = l }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *service) { s.logger = logger }
}

// NewService creates a new purchasing service instance.
func NewService(inv inventory.Service, mailer Mailer, shipper Shipper, opts ...Option) Service {
	s := &service{
		inventory: inv,
		mailer:    mailer,
		shipper:   shipper,
		logger:    zap.NewNop(),
		tracer:    otel.Tracer("bookstore/purchasing"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newMetrics(otel.Meter("bookstore/purchasing"), s.logger)
	return s
}

// BuyPaperBook reduces stock, ships the copies and returns price × quantity.
// Stock is restored when shipping fails.
func (s *service) BuyPaperBook(ctx context.Context, b *book.PaperBook, quantity int, address string) (float64, error) {
	return s.buyPaperBook(ctx, uuid.New(), b, quantity, address)
}

func (s *service) buyPaperBook(ctx context.Context, purchaseID uuid.UUID, b *book.PaperBook, quantity int, address string) (float64, error) {
	ctx, span := s.tracer.Start(ctx, "purchasing.buy_paper_book",
		trace.WithAttributes(
			attribute.String("purchase.id", purchaseID.String()),
			attribute.Int("purchase.quantity", quantity),
		),
	)
	defer span.End()

	// Step 1: Validate the request
	if b == nil {
		return 0, s.fail(span, fmt.Errorf("%w: invalid paper book", book.ErrInvalidArgument))
	}
	span.SetAttributes(attribute.String("book.isbn", b.ISBN()))
	if quantity <= 0 {
		return 0, s.fail(span, fmt.Errorf("%w: invalid paper book quantity %d", book.ErrInvalidArgument, quantity))
	}
	if strings.TrimSpace(address) == "" {
		return 0, s.fail(span, fmt.Errorf("%w: invalid customer address", book.ErrInvalidArgument))
	}

	// Step 2: Take the copies out of stock
	if err := b.ReduceStock(quantity); err != nil {
		return 0, s.fail(span, fmt.Errorf("buy %q: %w", b.Title(), err))
	}

	// Compensation for the stock reduction
	compensation := func(reason error) {
		ctx := context.WithoutCancel(ctx)
		s.logger.Warn("compensating failed shipment: restoring stock",
			zap.String("isbn", b.ISBN()),
			zap.Int("quantity", quantity),
			zap.Error(reason))
		if err := b.AddStock(quantity); err != nil {
			s.logger.Error("failed to restore stock", zap.String("isbn", b.ISBN()), zap.Error(err))
			return
		}
		s.metrics.compensations.Add(ctx, 1, metric.WithAttributes(attribute.String("book.kind", string(book.KindPaper))))
		s.record(ctx, b.ISBN(), ledger.StockRestored, purchaseID, StockRestoredEvent{
			ISBN:     b.ISBN(),
			Quantity: quantity,
			Reason:   reason.Error(),
		})
	}

	// Step 3: Ship
	if err := s.shipper.Ship(ctx, b, address); err != nil {
		compensation(err)
		return 0, s.fail(span, fmt.Errorf("%w %q: %w", ErrShippingFailed, b.Title(), err))
	}

	// Step 4: Charge
	amount := b.Price() * float64(quantity)
	s.record(ctx, b.ISBN(), ledger.PaperBookPurchased, purchaseID, PaperBookPurchasedEvent{
		ISBN:     b.ISBN(),
		Quantity: quantity,
		Address:  address,
		Amount:   amount,
	})
	s.metrics.recordPurchase(ctx, book.KindPaper, quantity, amount)

	s.logger.Info("paper book purchased",
		zap.String("purchase_id", purchaseID.String()),
		zap.String("isbn", b.ISBN()),
		zap.Int("quantity", quantity),
		zap.Float64("amount", amount),
		zap.Int("remaining_stock", b.Stock()))
	span.SetAttributes(attribute.Float64("purchase.amount", amount))
	return amount, nil
}

// BuyElectronicBook mails the book and returns its price.
func (s *service) BuyElectronicBook(ctx context.Context, b *book.ElectronicBook, email string) (float64, error) {
	return s.buyElectronicBook(ctx, uuid.New(), b, email)
}

func (s *service) buyElectronicBook(ctx context.Context, purchaseID uuid.UUID, b *book.ElectronicBook, email string) (float64, error) {
	ctx, span := s.tracer.Start(ctx, "purchasing.buy_electronic_book",
		trace.WithAttributes(attribute.String("purchase.id", purchaseID.String())),
	)
	defer span.End()

	if b == nil {
		return 0, s.fail(span, fmt.Errorf("%w: invalid electronic book", book.ErrInvalidArgument))
	}
	span.SetAttributes(attribute.String("book.isbn", b.ISBN()))
	if strings.TrimSpace(email) == "" {
		return 0, s.fail(span, fmt.Errorf("%w: invalid email for buying electronic book", book.ErrInvalidArgument))
	}

	if err := s.mailer.Send(ctx, b, email); err != nil {
		return 0, s.fail(span, fmt.Errorf("%w: %s: %w", ErrDeliveryFailed, b.Title(), err))
	}

	amount := b.Price()
	s.record(ctx, b.ISBN(), ledger.ElectronicBookPurchased, purchaseID, ElectronicBookPurchasedEvent{
		ISBN:   b.ISBN(),
		Email:  email,
		Amount: amount,
	})
	s.metrics.recordPurchase(ctx, book.KindElectronic, 1, amount)

	s.logger.Info("electronic book purchased",
		zap.String("purchase_id", purchaseID.String()),
		zap.String("isbn", b.ISBN()),
		zap.String("file_type", string(b.FileType())),
		zap.Float64("amount", amount))
	span.SetAttributes(attribute.Float64("purchase.amount", amount))
	return amount, nil
}

// Buy looks the book up by ISBN and runs the purchase that matches its variant.
func (s *service) Buy(ctx context.Context, order Order) (*Receipt, error) {
	b, err := s.inventory.Find(order.ISBN)
	if err != nil {
		return nil, err
	}
	if !b.Sellable() {
		return nil, fmt.Errorf("%s book %q: %w", b.Kind(), b.Title(), ErrNotSellable)
	}

	purchaseID := uuid.New()
	switch t := b.(type) {
	case *book.PaperBook:
		amount, err := s.buyPaperBook(ctx, purchaseID, t, order.Quantity, order.Address)
		if err != nil {
			return nil, err
		}
		return &Receipt{PurchaseID: purchaseID, ISBN: t.ISBN(), Quantity: order.Quantity, Amount: amount}, nil

	case *book.ElectronicBook:
		if order.Quantity > 1 {
			return nil, fmt.Errorf("%w: electronic books are sold one at a time", book.ErrInvalidArgument)
		}
		amount, err := s.buyElectronicBook(ctx, purchaseID, t, order.Email)
		if err != nil {
			return nil, err
		}
		return &Receipt{PurchaseID: purchaseID, ISBN: t.ISBN(), Quantity: 1, Amount: amount}, nil

	default:
		return nil, fmt.Errorf("%s book %q: %w", b.Kind(), b.Title(), ErrNotSellable)
	}
}

// record appends an event to the ledger. A failed append is logged but does
// not undo a completed delivery.
func (s *service) record(ctx context.Context, isbn, eventType string, purchaseID uuid.UUID, data interface{}) {
	if s.ledger == nil {
		return
	}

	event, err := ledger.NewEvent(eventType, purchaseID, data)
	if err == nil {
		err = s.ledger.AppendNext(ctx, isbn, event)
	}
	if err != nil {
		s.logger.Error("failed to record purchase event",
			zap.String("isbn", isbn),
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

func (s *service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
