// Command demo walks through the bookstore in-process and prints each step.
package main

import (
	"context"
	"fmt"

	"bookstore/internal/book"
	"bookstore/internal/clients"
	"bookstore/internal/inventory"
	"bookstore/internal/ledger"
	"bookstore/internal/logging"
	"bookstore/internal/purchasing"
)

type walkthrough struct {
	ctx        context.Context
	inventory  inventory.Service
	purchasing purchasing.Service
	ledger     *ledger.Ledger
}

func main() {
	logger := logging.NewDevelopment()
	defer logger.Sync()

	inv := inventory.NewService(inventory.WithLogger(logger))
	events := ledger.New()
	w := &walkthrough{
		ctx:       context.Background(),
		inventory: inv,
		purchasing: purchasing.NewService(inv,
			clients.NewLogMailer(logger),
			clients.NewLogShipper(logger),
			purchasing.WithLedger(events),
			purchasing.WithLogger(logger),
		),
		ledger: events,
	}

	fmt.Println("=== Bookstore walkthrough ===")

	fmt.Println("\n1. Adding books to inventory:")
	w.addPaperBook("Java Programming", 2023, 29.99, 50, 10)
	w.addElectronicBook("Python Guide", 2022, 19.99, book.FileTypePDF)
	w.addDemoBook("Free Sample Book", 2024)

	fmt.Println("\n2. Outdated books:")
	w.outdatedBooks(2)

	fmt.Println("\n3. Buying books:")
	w.buyPaperBook("Advanced Java", 2023, 39.99, 20, 3, "123 Main St, City, Country")
	w.buyElectronicBook("Digital Marketing", 2024, 24.99, book.FileTypeEPUB, "customer@email.com")
	w.buyDemoBook("Sample Book", 2024)

	w.inventoryStatus()

	fmt.Println("\n4. Removing outdated books:")
	w.removeOutdatedBooks(3)

	w.ledgerSummary()
	fmt.Println("\n=== Walkthrough complete ===")
}

func (w *walkthrough) addPaperBook(title string, year int, price float64, stock, quantity int) {
	b, err := book.NewPaperBook(title, year, price, stock)
	if err == nil {
		err = w.inventory.AddPaperBook(b, quantity)
	}
	if err != nil {
		fmt.Printf("Error adding paper book: %v\n", err)
		return
	}
	fmt.Printf("Added paper book %q with quantity %d\n", title, quantity)
}

func (w *walkthrough) addElectronicBook(title string, year int, price float64, fileType book.FileType) {
	b, err := book.NewElectronicBook(title, year, price, fileType)
	if err == nil {
		err = w.inventory.AddElectronicBook(b)
	}
	if err != nil {
		fmt.Printf("Error adding electronic book: %v\n", err)
		return
	}
	fmt.Printf("Added electronic book %q (%s)\n", title, fileType)
}

func (w *walkthrough) addDemoBook(title string, year int) {
	b, err := book.NewDemoBook(title, year)
	if err == nil {
		err = w.inventory.AddDemoBook(b)
	}
	if err != nil {
		fmt.Printf("Error adding demo book: %v\n", err)
		return
	}
	fmt.Printf("Added demo book %q\n", title)
}

func (w *walkthrough) outdatedBooks(pastYears int) {
	outdated := w.inventory.OutdatedBooks(pastYears)
	fmt.Printf("Found %d outdated books (older than %d years)\n", len(outdated), pastYears)
	for _, b := range outdated {
		fmt.Printf("  - %s (Published: %d)\n", b.Title(), b.PublishingYear())
	}
}

func (w *walkthrough) removeOutdatedBooks(pastYears int) {
	before := w.inventory.Count()
	remaining := w.inventory.RemoveOutdatedBooks(pastYears)
	fmt.Printf("Removed %d outdated books (older than %d years)\n", before-len(remaining), pastYears)
	fmt.Printf("  Remaining inventory: %d books\n", len(remaining))
}

func (w *walkthrough) buyPaperBook(title string, year int, price float64, stock, quantity int, address string) {
	b, err := book.NewPaperBook(title, year, price, stock)
	if err != nil {
		fmt.Printf("Error buying paper book: %v\n", err)
		return
	}
	if err := w.inventory.AddPaperBook(b, quantity); err != nil {
		fmt.Printf("Error buying paper book: %v\n", err)
		return
	}

	total, err := w.purchasing.BuyPaperBook(w.ctx, b, quantity, address)
	if err != nil {
		fmt.Printf("Error buying paper book: %v\n", err)
		return
	}
	fmt.Printf("Bought %d copies of %q\n", quantity, title)
	fmt.Printf("  Total cost: $%.2f\n", total)
	fmt.Printf("  Remaining stock: %d\n", b.Stock())
	fmt.Printf("  Shipped to: %s\n", address)
}

func (w *walkthrough) buyElectronicBook(title string, year int, price float64, fileType book.FileType, email string) {
	b, err := book.NewElectronicBook(title, year, price, fileType)
	if err == nil {
		err = w.inventory.AddElectronicBook(b)
	}
	if err != nil {
		fmt.Printf("Error buying electronic book: %v\n", err)
		return
	}

	total, err := w.purchasing.BuyElectronicBook(w.ctx, b, email)
	if err != nil {
		fmt.Printf("Error buying electronic book: %v\n", err)
		return
	}
	fmt.Printf("Bought electronic book %q\n", title)
	fmt.Printf("  Format: %s\n", fileType)
	fmt.Printf("  Total cost: $%.2f\n", total)
	fmt.Printf("  Sent to: %s\n", email)
}

func (w *walkthrough) buyDemoBook(title string, year int) {
	b, err := book.NewDemoBook(title, year)
	if err == nil {
		err = w.inventory.AddDemoBook(b)
	}
	if err != nil {
		fmt.Printf("Error adding demo book: %v\n", err)
		return
	}

	if _, err := w.purchasing.Buy(w.ctx, purchasing.Order{ISBN: b.ISBN(), Quantity: 1}); err != nil {
		fmt.Printf("Demo book purchase refused: %v\n", err)
		return
	}
	fmt.Println("Demo book purchase should have failed but didn't")
}

func (w *walkthrough) inventoryStatus() {
	books := w.inventory.List()
	fmt.Println("\n=== Inventory Status ===")
	fmt.Printf("Total books in inventory: %d\n", len(books))

	counts := map[book.Kind]int{}
	for _, b := range books {
		counts[b.Kind()]++
		fmt.Println(b.Describe())
	}
	fmt.Printf("Summary: %d paper, %d electronic, %d demo books\n",
		counts[book.KindPaper], counts[book.KindElectronic], counts[book.KindDemo])
}

func (w *walkthrough) ledgerSummary() {
	events, err := w.ledger.Stream(w.ctx, 0, 100)
	if err != nil {
		fmt.Printf("Error reading ledger: %v\n", err)
		return
	}
	fmt.Printf("\nLedger holds %d purchase events\n", len(events))
	for _, e := range events {
		fmt.Printf("  #%d %s %s\n", e.ID, e.EventType, e.AggregateID)
	}
}
