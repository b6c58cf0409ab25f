// Package server wires the bookstore HTTP API.
package server

import (
	"net/http"
	"time"

	"bookstore/internal/httputil"
	"bookstore/internal/inventory"
	"bookstore/internal/ledger"
	"bookstore/internal/purchasing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 30 * time.Second

type Deps struct {
	Inventory      inventory.Service
	Purchasing     purchasing.Service
	Ledger         *ledger.Ledger
	Logger         *zap.Logger
	RequestTimeout time.Duration
}

// NewRouter builds the chi router serving the books and purchases routes.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	books := inventory.NewHandler(d.Inventory)
	purchases := purchasing.NewHandler(d.Purchasing, d.Ledger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(otelhttp.NewMiddleware("bookstore"))
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/books", func(r chi.Router) {
		r.Get("/", books.HandleListBooks)
		r.Post("/paper", books.HandleAddPaperBook)
		r.Post("/electronic", books.HandleAddElectronicBook)
		r.Post("/demo", books.HandleAddDemoBook)
		r.Get("/outdated", books.HandleOutdatedBooks)
		r.Delete("/outdated", books.HandleRemoveOutdatedBooks)
		r.Get("/{isbn}", books.HandleGetBook)
	})

	r.Route("/purchases", func(r chi.Router) {
		r.Post("/", purchases.HandlePurchase)
		r.Get("/", purchases.HandleListPurchases)
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
