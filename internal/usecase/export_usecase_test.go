package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookscan/internal/domain"
	"github.com/iho/bookscan/internal/usecase"
	"github.com/iho/bookscan/internal/usecase/mocks"
)

func TestExportUseCase_ExportCSV(t *testing.T) {
	moveRepo := mocks.NewMockMoveRepository()
	moveRepo.ListExportLinesFunc = func(ctx context.Context, bookID string, years []int) ([]*domain.ExportLine, error) {
		return []*domain.ExportLine{
			{
				Date:      time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
				Journal:   "FIN",
				Account:   "600000",
				Reference: "FIN/2025001",
				Label:     "Office chairs",
				Amount:    decimal.NewFromInt(100),
				IsDebit:   true,
				Document:  "book1/FIN/20250401 - 2025001 - Office chairs - cap:100.pdf",
			},
			{
				Date:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
				Journal:  "FIN",
				Account:  "440000",
				Label:    "Office chairs",
				Amount:   decimal.NewFromInt(100),
				IsCredit: true,
				Document: "book1/FIN/20250401 - 2025001 - Office chairs - cap:100.pdf",
			},
		}, nil
	}

	uc := usecase.NewExportUseCase(moveRepo)

	var buf strings.Builder
	if err := uc.ExportCSV(context.Background(), &buf, "book-1", nil); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(lines))
	}
	if lines[0] != "date;journal;account;reference;label;amount;debit;credit;file" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2025-04-01;FIN;600000;FIN/2025001;Office chairs;100;100;;book1/FIN/20250401 - 2025001 - Office chairs - cap:100.pdf" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "2025-04-01;FIN;440000;;Office chairs;100;;100;book1/FIN/20250401 - 2025001 - Office chairs - cap:100.pdf" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestExportUseCase_ExportCSV_Empty(t *testing.T) {
	uc := usecase.NewExportUseCase(mocks.NewMockMoveRepository())

	var buf strings.Builder
	if err := uc.ExportCSV(context.Background(), &buf, "book-1", []int{2025}); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if got := strings.TrimRight(buf.String(), "\n"); got != "date;journal;account;reference;label;amount;debit;credit;file" {
		t.Errorf("empty export = %q, want header only", got)
	}
}
