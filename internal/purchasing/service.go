// internal/purchasing/service.go
package purchasing

import (
	"context"

	"bookstore/internal/book"
)

// Service defines the interface for the purchasing workflow.
// Demo books have no typed purchase operation; Buy rejects them.
type Service interface {
	BuyPaperBook(ctx context.Context, b *book.PaperBook, quantity int, address string) (float64, error)
	BuyElectronicBook(ctx context.Context, b *book.ElectronicBook, email string) (float64, error)
	Buy(ctx context.Context, order Order) (*Receipt, error)
}

// Mailer delivers electronic books. A non-nil error means delivery failed.
type Mailer interface {
	Send(ctx context.Context, b *book.ElectronicBook, email string) error
}

// Shipper delivers paper books. A non-nil error means shipping failed.
type Shipper interface {
	Ship(ctx context.Context, b *book.PaperBook, address string) error
}
