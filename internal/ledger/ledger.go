package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrConcurrencyConflict = errors.New("concurrency conflict: version mismatch")
	ErrInvalidVersion      = errors.New("invalid version number")
	ErrEmptyAggregateID    = errors.New("aggregate id is required")
)

// Event types recorded by the bookstore.
const (
	PaperBookPurchased      = "PaperBookPurchased"
	ElectronicBookPurchased = "ElectronicBookPurchased"
	StockRestored           = "StockRestored"
)

// Event is an entry in the purchase journal. AggregateID is the book ISBN.
type Event struct {
	ID            int64           `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	EventData     json.RawMessage `json:"event_data"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Ledger is an append-only, in-memory journal of bookstore events
// with per-aggregate optimistic concurrency.
type Ledger struct {
	mu       sync.RWMutex
	events   []Event
	versions map[string]int
	tracer   trace.Tracer
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		versions: make(map[string]int),
		tracer:   otel.Tracer("bookstore/ledger"),
	}
}

// Append atomically appends events for one aggregate. expectedVersion must
// match the aggregate's current version.
func (l *Ledger) Append(ctx context.Context, aggregateID string, expectedVersion int, events []Event) error {
	_, span := l.tracer.Start(ctx, "ledger.append",
		trace.WithAttributes(
			attribute.String("aggregate.id", aggregateID),
			attribute.Int("expected.version", expectedVersion),
			attribute.Int("event.count", len(events)),
		),
	)
	defer span.End()

	if aggregateID == "" {
		return ErrEmptyAggregateID
	}
	if expectedVersion < 0 {
		return ErrInvalidVersion
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	currentVersion := l.versions[aggregateID]
	if currentVersion != expectedVersion {
		span.SetAttributes(
			attribute.Int("actual.version", currentVersion),
			attribute.Bool("conflict.detected", true),
		)
		return ErrConcurrencyConflict
	}

	now := time.Now().UTC()
	for i, event := range events {
		event.ID = int64(len(l.events) + 1)
		event.AggregateID = aggregateID
		event.Version = expectedVersion + i + 1
		event.CreatedAt = now
		l.events = append(l.events, event)

		span.AddEvent("event.appended", trace.WithAttributes(
			attribute.Int64("event.id", event.ID),
			attribute.Int("event.version", event.Version),
			attribute.String("event.type", event.EventType),
		))
	}
	l.versions[aggregateID] = expectedVersion + len(events)

	span.SetAttributes(attribute.Bool("append.success", true))
	return nil
}

// AppendNext appends events after whatever version the aggregate is at.
func (l *Ledger) AppendNext(ctx context.Context, aggregateID string, events ...Event) error {
	for {
		version, err := l.CurrentVersion(ctx, aggregateID)
		if err != nil {
			return err
		}
		err = l.Append(ctx, aggregateID, version, events)
		if !errors.Is(err, ErrConcurrencyConflict) {
			return err
		}
		if ctx.Err() != nil {
			return fmt.Errorf("append %s: %w", aggregateID, ctx.Err())
		}
	}
}

// Load returns the events of one aggregate in version order. A toVersion of
// zero means no upper bound.
func (l *Ledger) Load(ctx context.Context, aggregateID string, fromVersion, toVersion int) ([]Event, error) {
	_, span := l.tracer.Start(ctx, "ledger.load",
		trace.WithAttributes(
			attribute.String("aggregate.id", aggregateID),
			attribute.Int("from.version", fromVersion),
			attribute.Int("to.version", toVersion),
		),
	)
	defer span.End()

	l.mu.RLock()
	defer l.mu.RUnlock()

	var events []Event
	for _, event := range l.events {
		if event.AggregateID != aggregateID || event.Version < fromVersion {
			continue
		}
		if toVersion > 0 && event.Version > toVersion {
			continue
		}
		events = append(events, event)
	}

	span.SetAttributes(attribute.Int("events.loaded", len(events)))
	return events, nil
}

// CurrentVersion returns the latest version of an aggregate, zero if it has no events.
func (l *Ledger) CurrentVersion(ctx context.Context, aggregateID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.versions[aggregateID], nil
}

// Stream returns up to batchSize events with an ID greater than fromID, in ID order.
func (l *Ledger) Stream(ctx context.Context, fromID int64, batchSize int) ([]Event, error) {
	_, span := l.tracer.Start(ctx, "ledger.stream",
		trace.WithAttributes(
			attribute.Int64("from.id", fromID),
			attribute.Int("batch.size", batchSize),
		),
	)
	defer span.End()

	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if fromID < 0 {
		fromID = 0
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	// IDs are dense and start at 1, so fromID is also the slice offset.
	if fromID >= int64(len(l.events)) {
		return []Event{}, nil
	}
	end := fromID + int64(batchSize)
	if end > int64(len(l.events)) {
		end = int64(len(l.events))
	}
	events := make([]Event, end-fromID)
	copy(events, l.events[fromID:end])

	span.SetAttributes(attribute.Int("events.streamed", len(events)))
	return events, nil
}

// NewEvent marshals data into an event of the given type.
func NewEvent(eventType string, correlationID uuid.UUID, data interface{}) (Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return Event{
		EventType:     eventType,
		CorrelationID: correlationID,
		EventData:     jsonData,
	}, nil
}
