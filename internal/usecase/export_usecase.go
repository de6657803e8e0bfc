package usecase

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/iho/bookscan/internal/domain"
)

// ExportUseCase writes a book's persisted lines as semicolon-separated CSV.
type ExportUseCase struct {
	moveRepo MoveRepository
}

// NewExportUseCase creates a new ExportUseCase.
func NewExportUseCase(moveRepo MoveRepository) *ExportUseCase {
	return &ExportUseCase{moveRepo: moveRepo}
}

var exportColumns = []string{"date", "journal", "account", "reference", "label", "amount", "debit", "credit", "file"}

// ExportCSV streams the book's lines to w, ordered by move date, optionally
// restricted to the given years.
func (uc *ExportUseCase) ExportCSV(ctx context.Context, w io.Writer, bookID string, years []int) error {
	lines, err := uc.moveRepo.ListExportLines(ctx, bookID, years)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	writer.Comma = ';'

	if err := writer.Write(exportColumns); err != nil {
		return err
	}
	for _, line := range lines {
		if err := writer.Write(exportRecord(line)); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func exportRecord(line *domain.ExportLine) []string {
	debit, credit := "", ""
	if line.IsDebit {
		debit = line.Amount.Abs().String()
	}
	if line.IsCredit {
		credit = line.Amount.Abs().String()
	}

	return []string{
		line.Date.Format("2006-01-02"),
		line.Journal,
		line.Account,
		line.Reference,
		line.Label,
		line.Amount.String(),
		debit,
		credit,
		line.Document,
	}
}
