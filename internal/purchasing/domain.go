// internal/purchasing/domain.go
package purchasing

import (
	"github.com/google/uuid"
)

// Order is a purchase request addressed by ISBN. Quantity and Address apply
// to paper books, Email to electronic books.
type Order struct {
	ISBN     string `json:"isbn"`
	Quantity int    `json:"quantity,omitempty"`
	Address  string `json:"address,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Receipt is the outcome of a successful purchase.
type Receipt struct {
	PurchaseID uuid.UUID `json:"purchase_id"`
	ISBN       string    `json:"isbn"`
	Quantity   int       `json:"quantity"`
	Amount     float64   `json:"amount"`
}

// PaperBookPurchasedEvent is recorded when copies are shipped.
type PaperBookPurchasedEvent struct {
	ISBN     string  `json:"isbn"`
	Quantity int     `json:"quantity"`
	Address  string  `json:"address"`
	Amount   float64 `json:"amount"`
}

// ElectronicBookPurchasedEvent is recorded when an electronic book is mailed.
type ElectronicBookPurchasedEvent struct {
	ISBN   string  `json:"isbn"`
	Email  string  `json:"email"`
	Amount float64 `json:"amount"`
}

// StockRestoredEvent is recorded when a failed shipment is compensated.
type StockRestoredEvent struct {
	ISBN     string `json:"isbn"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}
