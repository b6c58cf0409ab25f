package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookstore/internal/book"
	"bookstore/internal/clients"
	"bookstore/internal/httputil"
	"bookstore/internal/inventory"
	"bookstore/internal/ledger"
	"bookstore/internal/purchasing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingShipper struct{}

func (failingShipper) Ship(context.Context, *book.PaperBook, string) error {
	return errors.New("courier offline")
}

type testServer struct {
	*httptest.Server
	inventory inventory.Service
	ledger    *ledger.Ledger
}

func setupServer(t *testing.T, shipper purchasing.Shipper) *testServer {
	t.Helper()
	logger := zap.NewNop()
	inv := inventory.NewService(inventory.WithLogger(logger))
	l := ledger.New()
	if shipper == nil {
		shipper = clients.NewLogShipper(logger)
	}
	svc := purchasing.NewService(inv, clients.NewLogMailer(logger), shipper,
		purchasing.WithLedger(l), purchasing.WithLogger(logger))

	srv := httptest.NewServer(NewRouter(Deps{Inventory: inv, Purchasing: svc, Ledger: l, Logger: logger}))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, inventory: inv, ledger: l}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	ts := setupServer(t, nil)

	resp := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestPurchaseFlow(t *testing.T) {
	ts := setupServer(t, nil)

	// Add a paper book: 50 in stock plus 10 delivered
	resp := ts.do(t, http.MethodPost, "/books/paper", map[string]interface{}{
		"title": "Java Programming", "publishing_year": 2023, "price": 29.99, "stock": 50, "quantity": 10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var paper book.View
	decode(t, resp, &paper)
	require.NotNil(t, paper.Stock)
	assert.Equal(t, 60, *paper.Stock)
	assert.Equal(t, book.KindPaper, paper.Kind)
	assert.Len(t, paper.ISBN, 13)

	resp = ts.do(t, http.MethodPost, "/books/electronic", map[string]interface{}{
		"title": "Python Guide", "publishing_year": 2022, "price": 19.99, "file_type": "pdf",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var ebook book.View
	decode(t, resp, &ebook)
	assert.Equal(t, book.FileTypePDF, ebook.FileType)

	resp = ts.do(t, http.MethodPost, "/books/demo", map[string]interface{}{
		"title": "Free Sample Book", "publishing_year": 2024,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var demo book.View
	decode(t, resp, &demo)
	assert.False(t, demo.Sellable)

	// Buy three paper copies
	resp = ts.do(t, http.MethodPost, "/purchases", purchasing.Order{ISBN: paper.ISBN, Quantity: 3, Address: "123 Main St"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var receipt purchasing.Receipt
	decode(t, resp, &receipt)
	assert.InDelta(t, 89.97, receipt.Amount, 1e-9)
	assert.Equal(t, 3, receipt.Quantity)

	resp = ts.do(t, http.MethodGet, "/books/"+paper.ISBN, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var after book.View
	decode(t, resp, &after)
	assert.Equal(t, 57, *after.Stock)

	// Buy the electronic book
	resp = ts.do(t, http.MethodPost, "/purchases", purchasing.Order{ISBN: ebook.ISBN, Email: "reader@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &receipt)
	assert.InDelta(t, 19.99, receipt.Amount, 1e-9)

	// Demo books cannot be bought
	resp = ts.do(t, http.MethodPost, "/purchases", purchasing.Order{ISBN: demo.ISBN, Quantity: 1, Address: "X"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Both purchases are in the ledger
	resp = ts.do(t, http.MethodGet, "/purchases?from=0&limit=10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var events []ledger.Event
	decode(t, resp, &events)
	require.Len(t, events, 2)
	assert.Equal(t, ledger.PaperBookPurchased, events[0].EventType)
	assert.Equal(t, ledger.ElectronicBookPurchased, events[1].EventType)

	resp = ts.do(t, http.MethodGet, "/books", nil)
	var all []book.View
	decode(t, resp, &all)
	assert.Len(t, all, 3)
}

func TestPurchase_Errors(t *testing.T) {
	ts := setupServer(t, nil)
	b, err := book.NewPaperBook("Scarce", 2020, 10, 2)
	require.NoError(t, err)
	require.NoError(t, ts.inventory.AddPaperBook(b, 1))

	tests := []struct {
		name   string
		order  purchasing.Order
		status int
		code   string
	}{
		{"unknown isbn", purchasing.Order{ISBN: "0000000000000", Quantity: 1, Address: "X"}, http.StatusNotFound, "not_found"},
		{"insufficient stock", purchasing.Order{ISBN: b.ISBN(), Quantity: 4, Address: "X"}, http.StatusConflict, "insufficient_stock"},
		{"blank address", purchasing.Order{ISBN: b.ISBN(), Quantity: 1, Address: "  "}, http.StatusBadRequest, "invalid_argument"},
		{"zero quantity", purchasing.Order{ISBN: b.ISBN(), Address: "X"}, http.StatusBadRequest, "invalid_argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/purchases", tt.order)
			assert.Equal(t, tt.status, resp.StatusCode)
			var body httputil.ErrorResponse
			decode(t, resp, &body)
			assert.Equal(t, tt.code, body.Code)
		})
	}

	assert.Equal(t, 3, b.Stock())
}

func TestPurchase_ShippingFailureRestoresStock(t *testing.T) {
	ts := setupServer(t, failingShipper{})
	b, err := book.NewPaperBook("Fragile", 2020, 10, 2)
	require.NoError(t, err)
	require.NoError(t, ts.inventory.AddPaperBook(b, 3))

	resp := ts.do(t, http.MethodPost, "/purchases", purchasing.Order{ISBN: b.ISBN(), Quantity: 2, Address: "X"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, 5, b.Stock())

	events, err := ts.ledger.Load(context.Background(), b.ISBN(), 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ledger.StockRestored, events[0].EventType)
}

func TestBooks_Validation(t *testing.T) {
	ts := setupServer(t, nil)

	resp := ts.do(t, http.MethodPost, "/books/paper", map[string]interface{}{
		"title": "A", "publishing_year": 2020, "price": 10, "stock": 1, "quantity": 0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/books/electronic", map[string]interface{}{
		"title": "A", "publishing_year": 2020, "price": 10, "file_type": "MOBI",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/books/demo", map[string]interface{}{
		"title": "", "publishing_year": 2020,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/books/demo", map[string]interface{}{
		"title": "A", "publishing_year": 2020, "author": "unknown field",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/books/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/books/outdated", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Zero(t, ts.inventory.Count())
}

func TestBooks_Outdated(t *testing.T) {
	ts := setupServer(t, nil)
	old, err := book.NewDemoBook("Old", 1990)
	require.NoError(t, err)
	recent, err := book.NewDemoBook("Recent", 2024)
	require.NoError(t, err)
	require.NoError(t, ts.inventory.AddDemoBook(old))
	require.NoError(t, ts.inventory.AddDemoBook(recent))

	resp := ts.do(t, http.MethodGet, "/books/outdated?past_years=10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var outdated []book.View
	decode(t, resp, &outdated)
	require.Len(t, outdated, 1)
	assert.Equal(t, old.ISBN(), outdated[0].ISBN)
	assert.Equal(t, 2, ts.inventory.Count())

	resp = ts.do(t, http.MethodDelete, "/books/outdated?past_years=10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var remaining []book.View
	decode(t, resp, &remaining)
	require.Len(t, remaining, 1)
	assert.Equal(t, recent.ISBN(), remaining[0].ISBN)
	assert.Equal(t, 1, ts.inventory.Count())
}
