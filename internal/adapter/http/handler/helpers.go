package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/iho/bookscan/internal/domain"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrBookNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrScanInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDuplicateDocument):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNilAccount),
		errors.Is(err, domain.ErrTemplateMismatch),
		errors.Is(err, domain.ErrJournalMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// parseBoolQuery parses a boolean query parameter.
func parseBoolQuery(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

// parseYearsQuery parses a comma-separated list of years.
func parseYearsQuery(r *http.Request, key string) []int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}

	var years []int
	for _, part := range strings.Split(raw, ",") {
		if year, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			years = append(years, year)
		}
	}
	return years
}
