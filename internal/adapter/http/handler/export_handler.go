package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Exporter streams a book's lines as CSV.
type Exporter interface {
	ExportCSV(ctx context.Context, w io.Writer, bookID string, years []int) error
}

// ExportHandler serves CSV exports of persisted ledger lines.
type ExportHandler struct {
	export Exporter
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(export Exporter) *ExportHandler {
	return &ExportHandler{export: export}
}

// Export handles GET /api/v1/books/{bookID}/export?years=2024,2025.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	years := parseYearsQuery(r, "years")

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="book-`+bookID+`.csv"`)

	if err := h.export.ExportCSV(r.Context(), w, bookID, years); err != nil {
		// Headers may already be out; report what we can.
		writeError(w, mapDomainError(err), "export failed", err.Error())
	}
}
