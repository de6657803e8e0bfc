package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bookscan/internal/infrastructure/metrics"
	"github.com/iho/bookscan/internal/usecase"
)

// BookRunner runs a full scan over one book.
type BookRunner interface {
	RunBook(ctx context.Context, bookID string, force bool) (*usecase.BookReport, error)
}

// ScanHandler triggers book scans.
type ScanHandler struct {
	books   BookRunner
	metrics *metrics.Metrics
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(books BookRunner, m *metrics.Metrics) *ScanHandler {
	return &ScanHandler{books: books, metrics: m}
}

// Run handles POST /api/v1/books/{bookID}/scan. The force query parameter
// bypasses the idempotence filter.
func (h *ScanHandler) Run(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	force := parseBoolQuery(r, "force")

	start := time.Now()
	report, err := h.books.RunBook(r.Context(), bookID, force)
	if err != nil {
		writeError(w, mapDomainError(err), "scan failed", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveScan(report, time.Since(start))
	}

	writeJSON(w, http.StatusOK, report)
}
