package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bookstore/internal/book"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RatePerSecond = 1000
	cfg.Burst = 100
	cfg.MaxFailures = 2
	cfg.BreakerTimeout = time.Minute
	return cfg
}

func TestMailClient_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	b, err := book.NewElectronicBook("Python Guide", 2022, 19.99, book.FileTypePDF)
	require.NoError(t, err)

	client := NewMailClient(srv.URL, testConfig())
	require.NoError(t, client.Send(context.Background(), b, "customer@email.com"))

	assert.Equal(t, b.ISBN(), got["isbn"])
	assert.Equal(t, "PDF", got["file_type"])
	assert.Equal(t, "customer@email.com", got["email"])
}

func TestShippingClient_Ship(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shipments", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	b, err := book.NewPaperBook("Advanced Java", 2023, 39.99, 20)
	require.NoError(t, err)

	client := NewShippingClient(srv.URL, testConfig())
	require.NoError(t, client.Ship(context.Background(), b, "123 Main St"))
	assert.Equal(t, "123 Main St", got["address"])
	assert.Equal(t, "Advanced Java", got["title"])
}

func TestShippingClient_BreakerOpensAfterFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	b, err := book.NewPaperBook("A", 2020, 1, 1)
	require.NoError(t, err)
	client := NewShippingClient(srv.URL, testConfig())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := client.Ship(ctx, b, "X")
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	}

	err = client.Ship(ctx, b, "X")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestMailClient_RespectsCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.RatePerSecond = 0.001
	cfg.Burst = 1
	client := NewMailClient(srv.URL, cfg)
	b, err := book.NewElectronicBook("B", 2021, 5, book.FileTypeEPUB)
	require.NoError(t, err)

	require.NoError(t, client.Send(context.Background(), b, "a@b.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, client.Send(ctx, b, "a@b.com"))
}

func TestLogDelivery(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	e, err := book.NewElectronicBook("B", 2021, 5, book.FileTypeEPUB)
	require.NoError(t, err)
	mailer := NewLogMailer(logger)
	assert.NoError(t, mailer.Send(ctx, e, "a@b.com"))
	assert.ErrorIs(t, mailer.Send(ctx, e, "not-an-email"), ErrInvalidEmail)

	p, err := book.NewPaperBook("A", 2020, 1, 1)
	require.NoError(t, err)
	shipper := NewLogShipper(logger)
	assert.NoError(t, shipper.Ship(ctx, p, "123 Main St"))
	assert.ErrorIs(t, shipper.Ship(ctx, p, "  "), ErrInvalidAddress)
}
