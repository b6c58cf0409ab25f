// internal/inventory/implementation.go
package inventory

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"bookstore/internal/book"

	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("book not found")
	ErrDuplicateISBN = fmt.Errorf("%w: isbn already held by another book", book.ErrInvalidArgument)
)

// service implements the Service interface with an in-memory map keyed by ISBN.
type service struct {
	mu    sync.RWMutex
	books map[string]book.Book

	now    func() time.Time
	logger *zap.Logger
}

// Option configures the inventory service.
type Option func(*service)

// WithClock overrides the clock used to compute the cutoff year.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *service) { s.logger = logger }
}

// NewService creates an empty inventory.
func NewService(opts ...Option) Service {
	s := &service{
		books:  make(map[string]book.Book),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddPaperBook stores b and adds quantity copies to its stock.
func (s *service) AddPaperBook(b *book.PaperBook, quantity int) error {
	if b == nil {
		return fmt.Errorf("%w: paper book is required", book.ErrInvalidArgument)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", book.ErrInvalidArgument, quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCollision(b); err != nil {
		return err
	}
	if err := b.AddStock(quantity); err != nil {
		return err
	}
	s.books[b.ISBN()] = b

	s.logger.Info("paper book added",
		zap.String("isbn", b.ISBN()),
		zap.String("title", b.Title()),
		zap.Int("quantity", quantity),
		zap.Int("stock", b.Stock()))
	return nil
}

// AddElectronicBook stores b.
func (s *service) AddElectronicBook(b *book.ElectronicBook) error {
	if b == nil {
		return fmt.Errorf("%w: electronic book is required", book.ErrInvalidArgument)
	}
	return s.add(b)
}

// AddDemoBook stores b.
func (s *service) AddDemoBook(b *book.DemoBook) error {
	if b == nil {
		return fmt.Errorf("%w: demo book is required", book.ErrInvalidArgument)
	}
	return s.add(b)
}

func (s *service) add(b book.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCollision(b); err != nil {
		return err
	}
	s.books[b.ISBN()] = b

	s.logger.Info("book added",
		zap.String("isbn", b.ISBN()),
		zap.String("kind", string(b.Kind())),
		zap.String("title", b.Title()))
	return nil
}

// checkCollision rejects a different book that reuses an existing ISBN.
// Re-adding the same book is allowed. Callers must hold s.mu.
func (s *service) checkCollision(b book.Book) error {
	if existing, ok := s.books[b.ISBN()]; ok && existing != b {
		return fmt.Errorf("add %s: %w", b.ISBN(), ErrDuplicateISBN)
	}
	return nil
}

func (s *service) cutoffYear(pastYears int) int {
	return s.now().Year() - pastYears
}

// OutdatedBooks returns the books published strictly before the cutoff year, sorted by ISBN.
func (s *service) OutdatedBooks(pastYears int) []book.Book {
	cutoff := s.cutoffYear(pastYears)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var outdated []book.Book
	for _, b := range s.books {
		if b.PublishingYear() < cutoff {
			outdated = append(outdated, b)
		}
	}
	sortByISBN(outdated)
	return outdated
}

// RemoveOutdatedBooks deletes books published before the cutoff year.
func (s *service) RemoveOutdatedBooks(pastYears int) map[string]book.Book {
	cutoff := s.cutoffYear(pastYears)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for isbn, b := range s.books {
		if b.PublishingYear() < cutoff {
			delete(s.books, isbn)
			removed++
		}
	}

	s.logger.Info("outdated books removed",
		zap.Int("cutoff_year", cutoff),
		zap.Int("removed", removed),
		zap.Int("remaining", len(s.books)))
	return s.snapshotLocked()
}

// Find returns the book stored under isbn.
func (s *service) Find(isbn string) (book.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[isbn]
	if !ok {
		return nil, fmt.Errorf("isbn %s: %w", isbn, ErrNotFound)
	}
	return b, nil
}

// List returns every book sorted by ISBN.
func (s *service) List() []book.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]book.Book, 0, len(s.books))
	for _, b := range s.books {
		books = append(books, b)
	}
	sortByISBN(books)
	return books
}

// Count returns the number of distinct books held.
func (s *service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// Snapshot returns a copy of the ISBN to book mapping. Changing the copy does
// not affect the inventory.
func (s *service) Snapshot() map[string]book.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *service) snapshotLocked() map[string]book.Book {
	snapshot := make(map[string]book.Book, len(s.books))
	for isbn, b := range s.books {
		snapshot[isbn] = b
	}
	return snapshot
}

func sortByISBN(books []book.Book) {
	sort.Slice(books, func(i, j int) bool { return books[i].ISBN() < books[j].ISBN() })
}
