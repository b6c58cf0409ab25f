package purchasing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"bookstore/internal/book"
	"bookstore/internal/inventory"

	"github.com/cucumber/godog"
)

type purchaseTestContext struct {
	inventory inventory.Service
	shipper   *mockShipper
	mailer    *mockMailer
	service   Service
	byTitle   map[string]book.Book
	amount    float64
	err       error
}

func (c *purchaseTestContext) reset() {
	c.inventory = inventory.NewService()
	c.shipper = &mockShipper{}
	c.mailer = &mockMailer{}
	c.service = NewService(c.inventory, c.mailer, c.shipper)
	c.byTitle = map[string]book.Book{}
	c.amount = 0
	c.err = nil
}

func (c *purchaseTestContext) anEmptyInventory() error {
	if c.inventory.Count() != 0 {
		return fmt.Errorf("inventory holds %d books", c.inventory.Count())
	}
	return nil
}

func (c *purchaseTestContext) aPaperBook(title string, year int, price float64, stock int) error {
	b, err := book.NewPaperBook(title, year, price, stock)
	if err != nil {
		return err
	}
	// adding with quantity 0 is rejected, the book is bought directly
	if err := c.inventory.AddPaperBook(b, 0); !errors.Is(err, book.ErrInvalidArgument) {
		return fmt.Errorf("adding with quantity 0: got %v", err)
	}
	c.byTitle[title] = b
	return nil
}

func (c *purchaseTestContext) anElectronicBook(title string, year int, price float64, fileType string) error {
	ft, err := book.ParseFileType(fileType)
	if err != nil {
		return err
	}
	b, err := book.NewElectronicBook(title, year, price, ft)
	if err != nil {
		return err
	}
	c.byTitle[title] = b
	return c.inventory.AddElectronicBook(b)
}

func (c *purchaseTestContext) aDemoBook(title string, year int) error {
	b, err := book.NewDemoBook(title, year)
	if err != nil {
		return err
	}
	c.byTitle[title] = b
	return c.inventory.AddDemoBook(b)
}

func (c *purchaseTestContext) shippingIsUnavailable() error {
	c.shipper.err = errDeliveryRefused
	return nil
}

func (c *purchaseTestContext) iBuyCopiesShippedTo(quantity int, title, address string) error {
	b, ok := c.byTitle[title]
	if !ok {
		return fmt.Errorf("unknown book %q", title)
	}
	if p, ok := b.(*book.PaperBook); ok {
		c.amount, c.err = c.service.BuyPaperBook(context.Background(), p, quantity, address)
		return nil
	}

	var receipt *Receipt
	receipt, c.err = c.service.Buy(context.Background(), Order{ISBN: b.ISBN(), Quantity: quantity, Address: address})
	if receipt != nil {
		c.amount = receipt.Amount
	}
	return nil
}

func (c *purchaseTestContext) iBuySentTo(title, email string) error {
	b, ok := c.byTitle[title]
	if !ok {
		return fmt.Errorf("unknown book %q", title)
	}
	e, ok := b.(*book.ElectronicBook)
	if !ok {
		return fmt.Errorf("%q is not an electronic book", title)
	}
	c.amount, c.err = c.service.BuyElectronicBook(context.Background(), e, email)
	return nil
}

func (c *purchaseTestContext) thePurchaseIsCharged(amount float64) error {
	if c.err != nil {
		return fmt.Errorf("purchase failed: %w", c.err)
	}
	if c.amount != amount {
		return fmt.Errorf("charged %.2f, want %.2f", c.amount, amount)
	}
	return nil
}

func (c *purchaseTestContext) thePurchaseFailsWith(kind string) error {
	kinds := map[string]error{
		"invalid argument":   book.ErrInvalidArgument,
		"insufficient stock": book.ErrInsufficientStock,
		"shipping failed":    ErrShippingFailed,
		"delivery failed":    ErrDeliveryFailed,
		"not sellable":       ErrNotSellable,
	}
	want, ok := kinds[kind]
	if !ok {
		return fmt.Errorf("unknown error kind %q", kind)
	}
	if !errors.Is(c.err, want) {
		return fmt.Errorf("got error %v, want %s", c.err, kind)
	}
	return nil
}

func (c *purchaseTestContext) theStockOfIs(title string, stock int) error {
	p, ok := c.byTitle[title].(*book.PaperBook)
	if !ok {
		return fmt.Errorf("%q is not a paper book", title)
	}
	if p.Stock() != stock {
		return fmt.Errorf("stock %d, want %d", p.Stock(), stock)
	}
	return nil
}

func (c *purchaseTestContext) isNotSellable(title string) error {
	b, ok := c.byTitle[title]
	if !ok {
		return fmt.Errorf("unknown book %q", title)
	}
	if b.Sellable() {
		return fmt.Errorf("%q is sellable", title)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &purchaseTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^an empty inventory$`, tc.anEmptyInventory)
	ctx.Step(`^a paper book "([^"]*)" from (\d+) priced (\d+\.\d+) with stock (\d+)$`, tc.aPaperBook)
	ctx.Step(`^an electronic book "([^"]*)" from (\d+) priced (\d+\.\d+) as (\w+)$`, tc.anElectronicBook)
	ctx.Step(`^a demo book "([^"]*)" from (\d+)$`, tc.aDemoBook)
	ctx.Step(`^shipping is unavailable$`, tc.shippingIsUnavailable)

	ctx.Step(`^I buy (\d+) copies of "([^"]*)" shipped to "([^"]*)"$`, tc.iBuyCopiesShippedTo)
	ctx.Step(`^I buy "([^"]*)" sent to "([^"]*)"$`, tc.iBuySentTo)

	ctx.Step(`^the purchase is charged (\d+\.\d+)$`, tc.thePurchaseIsCharged)
	ctx.Step(`^the purchase fails with "([^"]*)"$`, tc.thePurchaseFailsWith)
	ctx.Step(`^the stock of "([^"]*)" is (\d+)$`, tc.theStockOfIs)
	ctx.Step(`^"([^"]*)" is not sellable$`, tc.isNotSellable)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
