// internal/inventory/handler.go
package inventory

import (
	"errors"
	"net/http"

	"bookstore/internal/book"
	"bookstore/internal/httputil"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleAddPaperBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title          string  `json:"title"`
		PublishingYear int     `json:"publishing_year"`
		Price          float64 `json:"price"`
		Stock          int     `json:"stock"`
		Quantity       int     `json:"quantity"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	b, err := book.NewPaperBook(req.Title, req.PublishingYear, req.Price, req.Stock)
	if err != nil {
		RespondError(w, err)
		return
	}
	if err := h.service.AddPaperBook(b, req.Quantity); err != nil {
		RespondError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, book.ViewOf(b))
}

func (h *Handler) HandleAddElectronicBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title          string  `json:"title"`
		PublishingYear int     `json:"publishing_year"`
		Price          float64 `json:"price"`
		FileType       string  `json:"file_type"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	fileType, err := book.ParseFileType(req.FileType)
	if err != nil {
		RespondError(w, err)
		return
	}
	b, err := book.NewElectronicBook(req.Title, req.PublishingYear, req.Price, fileType)
	if err != nil {
		RespondError(w, err)
		return
	}
	if err := h.service.AddElectronicBook(b); err != nil {
		RespondError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, book.ViewOf(b))
}

func (h *Handler) HandleAddDemoBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title          string `json:"title"`
		PublishingYear int    `json:"publishing_year"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	b, err := book.NewDemoBook(req.Title, req.PublishingYear)
	if err != nil {
		RespondError(w, err)
		return
	}
	if err := h.service.AddDemoBook(b); err != nil {
		RespondError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, book.ViewOf(b))
}

func (h *Handler) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, book.ViewsOf(h.service.List()))
}

func (h *Handler) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Find(chi.URLParam(r, "isbn"))
	if err != nil {
		RespondError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, book.ViewOf(b))
}

func (h *Handler) HandleOutdatedBooks(w http.ResponseWriter, r *http.Request) {
	pastYears, ok := pastYearsParam(w, r)
	if !ok {
		return
	}

	httputil.RespondJSON(w, http.StatusOK, book.ViewsOf(h.service.OutdatedBooks(pastYears)))
}

func (h *Handler) HandleRemoveOutdatedBooks(w http.ResponseWriter, r *http.Request) {
	pastYears, ok := pastYearsParam(w, r)
	if !ok {
		return
	}

	remaining := h.service.RemoveOutdatedBooks(pastYears)
	books := make([]book.Book, 0, len(remaining))
	for _, b := range remaining {
		books = append(books, b)
	}
	sortByISBN(books)

	httputil.RespondJSON(w, http.StatusOK, book.ViewsOf(books))
}

func pastYearsParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	if r.URL.Query().Get("past_years") == "" {
		httputil.RespondError(w, http.StatusBadRequest, "invalid_argument", "missing past_years")
		return 0, false
	}
	pastYears, err := httputil.QueryInt(r, "past_years", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid_argument", "past_years must be an integer")
		return 0, false
	}
	return pastYears, true
}

// RespondError maps book and inventory errors to HTTP statuses.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDuplicateISBN):
		httputil.RespondError(w, http.StatusConflict, "duplicate_isbn", err.Error())
	case errors.Is(err, book.ErrInvalidArgument):
		httputil.RespondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, book.ErrInsufficientStock):
		httputil.RespondError(w, http.StatusConflict, "insufficient_stock", err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
