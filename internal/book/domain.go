// internal/book/domain.go
package book

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Kind names a book variant.
type Kind string

const (
	KindDemo       Kind = "demo"
	KindElectronic Kind = "electronic"
	KindPaper      Kind = "paper"
)

// Book is a purchasable or free item held in the inventory.
// The set of implementations is closed: DemoBook, ElectronicBook and PaperBook.
type Book interface {
	ISBN() string
	Title() string
	PublishingYear() int
	Price() float64
	Sellable() bool
	Kind() Kind
	Describe() string

	sealed()
}

// base holds the fields shared by every variant. They never change after construction.
type base struct {
	isbn           string
	title          string
	publishingYear int
	price          float64
}

func newBase(title string, publishingYear int, price float64) (base, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return base{}, fmt.Errorf("%w: book title must not be blank", ErrInvalidArgument)
	}
	if currentYear := time.Now().Year(); publishingYear < 1 || publishingYear > currentYear {
		return base{}, fmt.Errorf("%w: publishing year %d outside [1, %d]", ErrInvalidArgument, publishingYear, currentYear)
	}
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return base{}, fmt.Errorf("%w: invalid price %v", ErrInvalidArgument, price)
	}

	return base{
		isbn:           NewISBN(),
		title:          title,
		publishingYear: publishingYear,
		price:          price,
	}, nil
}

func (b *base) ISBN() string        { return b.isbn }
func (b *base) Title() string       { return b.title }
func (b *base) PublishingYear() int { return b.publishingYear }
func (b *base) Price() float64      { return b.price }
func (b *base) sealed()             {}

// DemoBook is a free sample. It cannot be sold.
type DemoBook struct {
	base
}

// NewDemoBook creates a demo book. Its price is always zero.
func NewDemoBook(title string, publishingYear int) (*DemoBook, error) {
	b, err := newBase(title, publishingYear, 0)
	if err != nil {
		return nil, err
	}
	return &DemoBook{base: b}, nil
}

func (d *DemoBook) Sellable() bool { return false }
func (d *DemoBook) Kind() Kind     { return KindDemo }

func (d *DemoBook) Describe() string {
	return fmt.Sprintf("Demo: %s (%d)", d.title, d.publishingYear)
}

// FileType is the delivery format of an electronic book.
type FileType string

const (
	FileTypeEPUB FileType = "EPUB"
	FileTypePDF  FileType = "PDF"
)

// Valid reports whether t is one of the supported formats.
func (t FileType) Valid() bool {
	return t == FileTypeEPUB || t == FileTypePDF
}

// ParseFileType accepts "epub" or "pdf" in any case.
func ParseFileType(s string) (FileType, error) {
	t := FileType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unsupported file type %q", ErrInvalidArgument, s)
	}
	return t, nil
}

// ElectronicBook is delivered by email and never runs out.
type ElectronicBook struct {
	base
	fileType FileType
}

// NewElectronicBook creates an electronic book in the given format.
func NewElectronicBook(title string, publishingYear int, price float64, fileType FileType) (*ElectronicBook, error) {
	b, err := newBase(title, publishingYear, price)
	if err != nil {
		return nil, err
	}
	if !fileType.Valid() {
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrInvalidArgument, fileType)
	}
	return &ElectronicBook{base: b, fileType: fileType}, nil
}

func (e *ElectronicBook) FileType() FileType { return e.fileType }
func (e *ElectronicBook) Sellable() bool     { return true }
func (e *ElectronicBook) Kind() Kind         { return KindElectronic }

func (e *ElectronicBook) Describe() string {
	return fmt.Sprintf("Electronic: %s (%s)", e.title, e.fileType)
}

// PaperBook is shipped physically and carries a stock count.
type PaperBook struct {
	base

	mu    sync.Mutex
	stock int
}

// NewPaperBook creates a paper book with a positive initial stock.
func NewPaperBook(title string, publishingYear int, price float64, stock int) (*PaperBook, error) {
	b, err := newBase(title, publishingYear, price)
	if err != nil {
		return nil, err
	}
	if stock <= 0 {
		return nil, fmt.Errorf("%w: initial stock must be positive, got %d", ErrInvalidArgument, stock)
	}
	return &PaperBook{base: b, stock: stock}, nil
}

func (p *PaperBook) Sellable() bool { return true }
func (p *PaperBook) Kind() Kind     { return KindPaper }

func (p *PaperBook) Describe() string {
	return fmt.Sprintf("Paper: %s (Stock: %d)", p.title, p.Stock())
}

// Stock returns the number of copies on hand.
func (p *PaperBook) Stock() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stock
}

// AddStock increases the stock by quantity.
func (p *PaperBook) AddStock(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: stock increase must be positive, got %d", ErrInvalidArgument, quantity)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stock += quantity
	return nil
}

// ReduceStock removes quantity copies. The stock is left untouched when
// there are not enough copies.
func (p *PaperBook) ReduceStock(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: stock reduction must be positive, got %d", ErrInvalidArgument, quantity)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if quantity > p.stock {
		return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, quantity, p.stock)
	}
	p.stock -= quantity
	return nil
}
