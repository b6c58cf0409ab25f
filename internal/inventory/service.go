// internal/inventory/service.go
package inventory

import (
	"bookstore/internal/book"
)

// Service defines the interface for the inventory store.
type Service interface {
	AddPaperBook(b *book.PaperBook, quantity int) error
	AddElectronicBook(b *book.ElectronicBook) error
	AddDemoBook(b *book.DemoBook) error

	// OutdatedBooks returns books published before the cutoff year
	// (current year minus pastYears) without changing the inventory.
	OutdatedBooks(pastYears int) []book.Book
	// RemoveOutdatedBooks deletes the books OutdatedBooks would return and
	// returns a copy of what remains.
	RemoveOutdatedBooks(pastYears int) map[string]book.Book

	Find(isbn string) (book.Book, error)
	List() []book.Book
	Count() int
	Snapshot() map[string]book.Book
}
