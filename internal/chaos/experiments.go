package chaos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"bookstore/internal/book"
	"bookstore/internal/inventory"
	"bookstore/internal/ledger"
	"bookstore/internal/purchasing"
)

// Target is the in-process bookstore the experiments run against. The faults
// must wrap the collaborators the purchasing service was built with.
type Target struct {
	Inventory     inventory.Service
	Purchasing    purchasing.Service
	Ledger        *ledger.Ledger
	ShippingFault *Fault
	MailFault     *Fault
}

// RegisterExperiments stocks a dedicated book per experiment and registers
// the predefined experiments with the engine.
func (e *Engine) RegisterExperiments(t Target) error {
	builders := []func(Target) (Experiment, error){
		ShippingOutageExperiment,
		ConcurrentPurchaseExperiment,
		MailOutageExperiment,
	}
	for _, build := range builders {
		exp, err := build(t)
		if err != nil {
			return err
		}
		e.Register(exp)
	}
	return nil
}

// ShippingOutageExperiment fails every shipment while buyers keep ordering.
func ShippingOutageExperiment(t Target) (Experiment, error) {
	const initialStock, buyers = 50, 50

	b, err := stockPaperBook(t, "Chaos: Shipping Outage", initialStock)
	if err != nil {
		return Experiment{}, err
	}

	return Experiment{
		Name:       "shipping-outage",
		Hypothesis: "Stock is restored for every shipment that fails",
		SteadyState: []Metric{
			stockDriftMetric(t, b, initialStock),
			{
				Name:      "copies_shipped",
				Query:     func(ctx context.Context) (float64, error) { return copiesShipped(ctx, t.Ledger, b.ISBN()) },
				Threshold: Threshold{Operator: "==", Value: 0},
			},
		},
		Method: []Action{
			{
				Type:   "inject-failure",
				Target: "shipping",
				Execute: func(ctx context.Context) error {
					t.ShippingFault.SetRate(1)
					return nil
				},
			},
			{
				Type:   "concurrent-purchases",
				Target: "purchasing",
				Execute: func(ctx context.Context) error {
					order := purchasing.Order{ISBN: b.ISBN(), Quantity: 1, Address: "1 Outage Road"}
					return runBuyers(ctx, buyers, func(ctx context.Context) error {
						_, err := t.Purchasing.Buy(ctx, order)
						return err
					}, purchasing.ErrShippingFailed)
				},
			},
		},
		Rollback: []Action{resetFault("shipping", t.ShippingFault)},
		Validation: []Assertion{
			{
				Metric:    "stock_drift",
				Condition: func(v float64) bool { return v == 0 },
				Message:   "Every failed shipment should return its copies to stock",
			},
			{
				Metric:    "copies_shipped",
				Condition: func(v float64) bool { return v == 0 },
				Message:   "No sale should be recorded while shipping is down",
			},
		},
		Duration:       3 * time.Second,
		SampleInterval: 500 * time.Millisecond,
	}, nil
}

// ConcurrentPurchaseExperiment races buyers for the same paper book while a
// share of the shipments fail.
func ConcurrentPurchaseExperiment(t Target) (Experiment, error) {
	const initialStock, buyers, quantity = 100, 80, 2

	b, err := stockPaperBook(t, "Chaos: Concurrent Purchases", initialStock)
	if err != nil {
		return Experiment{}, err
	}

	return Experiment{
		Name:       "concurrent-purchase-race",
		Hypothesis: "Concurrent buyers never oversell a paper book",
		SteadyState: []Metric{
			stockDriftMetric(t, b, initialStock),
			{
				Name: "oversold_copies",
				Query: func(ctx context.Context) (float64, error) {
					shipped, err := copiesShipped(ctx, t.Ledger, b.ISBN())
					return max(shipped-initialStock, 0), err
				},
				Threshold: Threshold{Operator: "==", Value: 0},
			},
		},
		Method: []Action{
			{
				Type:   "inject-failure",
				Target: "shipping",
				Execute: func(ctx context.Context) error {
					t.ShippingFault.SetRate(0.3)
					return nil
				},
			},
			{
				Type:   "concurrent-purchases",
				Target: "purchasing",
				Execute: func(ctx context.Context) error {
					order := purchasing.Order{ISBN: b.ISBN(), Quantity: quantity, Address: "2 Race Street"}
					return runBuyers(ctx, buyers, func(ctx context.Context) error {
						_, err := t.Purchasing.Buy(ctx, order)
						return err
					}, purchasing.ErrShippingFailed, book.ErrInsufficientStock)
				},
			},
		},
		Rollback: []Action{resetFault("shipping", t.ShippingFault)},
		Validation: []Assertion{
			{
				Metric:    "stock_drift",
				Condition: func(v float64) bool { return v == 0 },
				Message:   "Stock plus shipped copies should equal the initial stock",
			},
			{
				Metric:    "oversold_copies",
				Condition: func(v float64) bool { return v == 0 },
				Message:   "No more copies should be shipped than were stocked",
			},
		},
		Duration:       3 * time.Second,
		SampleInterval: 500 * time.Millisecond,
	}, nil
}

// MailOutageExperiment fails every mail delivery of an electronic book.
func MailOutageExperiment(t Target) (Experiment, error) {
	const buyers = 20

	b, err := book.NewElectronicBook("Chaos: Mail Outage", 2020, 5, book.FileTypeEPUB)
	if err != nil {
		return Experiment{}, err
	}
	if err := t.Inventory.AddElectronicBook(b); err != nil {
		return Experiment{}, err
	}

	return Experiment{
		Name:       "mail-outage",
		Hypothesis: "Electronic sales are only recorded for delivered mail",
		SteadyState: []Metric{
			{
				Name:      "electronic_sales",
				Query:     func(ctx context.Context) (float64, error) { return countEvents(ctx, t.Ledger, b.ISBN(), ledger.ElectronicBookPurchased) },
				Threshold: Threshold{Operator: "==", Value: 0},
			},
		},
		Method: []Action{
			{
				Type:   "inject-failure",
				Target: "mail",
				Execute: func(ctx context.Context) error {
					t.MailFault.SetRate(1)
					return nil
				},
			},
			{
				Type:   "concurrent-purchases",
				Target: "purchasing",
				Execute: func(ctx context.Context) error {
					order := purchasing.Order{ISBN: b.ISBN(), Email: "chaos@example.com"}
					return runBuyers(ctx, buyers, func(ctx context.Context) error {
						_, err := t.Purchasing.Buy(ctx, order)
						return err
					}, purchasing.ErrDeliveryFailed)
				},
			},
		},
		Rollback: []Action{resetFault("mail", t.MailFault)},
		Validation: []Assertion{
			{
				Metric:    "electronic_sales",
				Condition: func(v float64) bool { return v == 0 },
				Message:   "No electronic sale should be recorded while mail is down",
			},
		},
		Duration:       2 * time.Second,
		SampleInterval: 500 * time.Millisecond,
	}, nil
}

// stockPaperBook adds a paper book holding stock copies. stock must be at least 2.
func stockPaperBook(t Target, title string, stock int) (*book.PaperBook, error) {
	b, err := book.NewPaperBook(title, 2020, 10, 1)
	if err != nil {
		return nil, err
	}
	if err := t.Inventory.AddPaperBook(b, stock-1); err != nil {
		return nil, fmt.Errorf("stock %q: %w", title, err)
	}
	return b, nil
}

// stockDriftMetric measures copies that are neither in stock nor shipped.
func stockDriftMetric(t Target, b *book.PaperBook, initialStock int) Metric {
	return Metric{
		Name: "stock_drift",
		Query: func(ctx context.Context) (float64, error) {
			shipped, err := copiesShipped(ctx, t.Ledger, b.ISBN())
			if err != nil {
				return 0, err
			}
			return float64(initialStock) - float64(b.Stock()) - shipped, nil
		},
		Threshold: Threshold{Operator: "==", Value: 0},
	}
}

func resetFault(target string, f *Fault) Action {
	return Action{
		Type:   "remove-failure",
		Target: target,
		Execute: func(context.Context) error {
			f.Reset()
			return nil
		},
	}
}

func copiesShipped(ctx context.Context, l *ledger.Ledger, isbn string) (float64, error) {
	events, err := l.Load(ctx, isbn, 0, 0)
	if err != nil {
		return 0, err
	}
	var copies float64
	for _, e := range events {
		if e.EventType != ledger.PaperBookPurchased {
			continue
		}
		var data purchasing.PaperBookPurchasedEvent
		if err := json.Unmarshal(e.EventData, &data); err != nil {
			return 0, fmt.Errorf("decode event %d: %w", e.ID, err)
		}
		copies += float64(data.Quantity)
	}
	return copies, nil
}

func countEvents(ctx context.Context, l *ledger.Ledger, isbn, eventType string) (float64, error) {
	events, err := l.Load(ctx, isbn, 0, 0)
	if err != nil {
		return 0, err
	}
	var n float64
	for _, e := range events {
		if e.EventType == eventType {
			n++
		}
	}
	return n, nil
}

// runBuyers runs n concurrent purchases and reports the errors that are not
// among the expected kinds.
func runBuyers(ctx context.Context, n int, buy func(context.Context) error, expected ...error) error {
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := buy(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	var unexpected []error
	for err := range errs {
		if !isAny(err, expected) {
			unexpected = append(unexpected, err)
		}
	}
	return errors.Join(unexpected...)
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
