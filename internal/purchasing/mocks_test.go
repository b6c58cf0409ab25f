package purchasing

import (
	"context"
	"errors"
	"strings"
	"sync"

	"bookstore/internal/book"
)

var errDeliveryRefused = errors.New("delivery refused")

// mockMailer accepts any address containing "@" unless err is set.
type mockMailer struct {
	mu    sync.Mutex
	err   error
	sends []string
}

func (m *mockMailer) Send(_ context.Context, b *book.ElectronicBook, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if !strings.Contains(email, "@") {
		return errDeliveryRefused
	}
	m.sends = append(m.sends, b.ISBN()+"->"+email)
	return nil
}

func (m *mockMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sends)
}

// mockShipper accepts every shipment unless err is set.
type mockShipper struct {
	mu        sync.Mutex
	err       error
	shipments []string
	// stockSeen records the stock at the time Ship is called
	stockSeen []int
}

func (m *mockShipper) Ship(_ context.Context, b *book.PaperBook, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stockSeen = append(m.stockSeen, b.Stock())
	if m.err != nil {
		return m.err
	}
	m.shipments = append(m.shipments, b.ISBN()+"->"+address)
	return nil
}

func (m *mockShipper) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shipments)
}
