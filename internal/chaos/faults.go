package chaos

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"bookstore/internal/book"
	"bookstore/internal/purchasing"
)

var ErrInjected = errors.New("injected fault")

// Fault is a switchable failure source shared by the faulty collaborators.
// Rate is the share of calls that fail, Latency is added to every call.
type Fault struct {
	mu       sync.Mutex
	rate     float64
	latency  time.Duration
	injected int
}

func (f *Fault) SetRate(rate float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rate = min(max(rate, 0), 1)
}

func (f *Fault) SetLatency(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latency = max(d, 0)
}

// Injected returns how many calls were failed on purpose.
func (f *Fault) Injected() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.injected
}

// Reset clears the rate, the latency and the counter.
func (f *Fault) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rate, f.latency, f.injected = 0, 0, 0
}

func (f *Fault) apply(ctx context.Context, target string) error {
	f.mu.Lock()
	latency := f.latency
	trip := f.rate > 0 && rand.Float64() < f.rate
	if trip {
		f.injected++
	}
	f.mu.Unlock()

	if latency > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(latency):
		}
	}
	if trip {
		return fmt.Errorf("%s: %w", target, ErrInjected)
	}
	return nil
}

// FaultyShipper fails shipments according to its fault before delegating.
type FaultyShipper struct {
	next  purchasing.Shipper
	fault *Fault
}

func NewFaultyShipper(next purchasing.Shipper, fault *Fault) *FaultyShipper {
	return &FaultyShipper{next: next, fault: fault}
}

func (s *FaultyShipper) Ship(ctx context.Context, b *book.PaperBook, address string) error {
	if err := s.fault.apply(ctx, "shipping"); err != nil {
		return err
	}
	return s.next.Ship(ctx, b, address)
}

// FaultyMailer fails mail deliveries according to its fault before delegating.
type FaultyMailer struct {
	next  purchasing.Mailer
	fault *Fault
}

func NewFaultyMailer(next purchasing.Mailer, fault *Fault) *FaultyMailer {
	return &FaultyMailer{next: next, fault: fault}
}

func (m *FaultyMailer) Send(ctx context.Context, b *book.ElectronicBook, email string) error {
	if err := m.fault.apply(ctx, "mail"); err != nil {
		return err
	}
	return m.next.Send(ctx, b, email)
}
