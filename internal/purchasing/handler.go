// internal/purchasing/handler.go
package purchasing

import (
	"errors"
	"net/http"

	"bookstore/internal/httputil"
	"bookstore/internal/inventory"
	"bookstore/internal/ledger"
)

const defaultStreamLimit = 100

type Handler struct {
	service Service
	ledger  *ledger.Ledger
}

func NewHandler(service Service, l *ledger.Ledger) *Handler {
	return &Handler{service: service, ledger: l}
}

func (h *Handler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	var req Order
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	receipt, err := h.service.Buy(r.Context(), req)
	if err != nil {
		RespondError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) HandleListPurchases(w http.ResponseWriter, r *http.Request) {
	from, err := httputil.QueryInt(r, "from", 0)
	if err != nil || from < 0 {
		httputil.RespondError(w, http.StatusBadRequest, "invalid_argument", "from must be a non-negative integer")
		return
	}
	limit, err := httputil.QueryInt(r, "limit", defaultStreamLimit)
	if err != nil || limit <= 0 {
		httputil.RespondError(w, http.StatusBadRequest, "invalid_argument", "limit must be a positive integer")
		return
	}

	events, err := h.ledger.Stream(r.Context(), int64(from), limit)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	httputil.RespondJSON(w, http.StatusOK, events)
}

// RespondError maps purchase errors to HTTP statuses.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotSellable):
		httputil.RespondError(w, http.StatusUnprocessableEntity, "not_sellable", err.Error())
	case errors.Is(err, ErrShippingFailed):
		httputil.RespondError(w, http.StatusBadGateway, "shipping_failed", err.Error())
	case errors.Is(err, ErrDeliveryFailed):
		httputil.RespondError(w, http.StatusBadGateway, "delivery_failed", err.Error())
	default:
		inventory.RespondError(w, err)
	}
}
