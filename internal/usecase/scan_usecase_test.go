package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bookscan/internal/domain"
	"github.com/iho/bookscan/internal/usecase"
	"github.com/iho/bookscan/internal/usecase/mocks"
)

func writeDoc(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("doc"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testBook(root string) *domain.Book {
	return &domain.Book{
		ID:         "book-1",
		TemplateID: "tpl-1",
		Name:       "Test book",
		Path:       filepath.Join(root, "book1"),
	}
}

func testJournal() *domain.Journal {
	return &domain.Journal{ID: "jrn-1", TemplateID: "tpl-1", Code: "FIN", Name: "Financial"}
}

func testAccounts() []*domain.Account {
	return []*domain.Account{
		domain.NewAccount("acc-cash", "tpl-1", "Cash", "570", "cap", domain.TypeLiquidity),
		domain.NewAccount("acc-exp", "tpl-1", "Purchases", "600", "ht", domain.TypeExpense),
		domain.NewAccount("acc-vat", "tpl-1", "VAT receivable", "411", "vat", domain.TypeReceivable),
		domain.NewAccount("acc-sup", "tpl-1", "Suppliers", "440", "tt", domain.TypePayable),
	}
}

func testRuleSet(accounts []*domain.Account) *domain.RuleSet {
	byID := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	rs := &domain.RuleSet{
		ID:         "rs-1",
		TemplateID: "tpl-1",
		JournalID:  "jrn-1",
		Code:       "vnt",
		Name:       "Purchase invoices",
	}
	rs.Rules = []*domain.LineRule{
		{ID: "r-ht", RuleSetID: rs.ID, Account: byID["acc-exp"], Code: "ht", Order: 10},
		{ID: "r-vat", RuleSetID: rs.ID, Account: byID["acc-vat"], Code: "vat", Order: 20,
			Formula: "ht*0.21 if ht else tt/1.21"},
		{ID: "r-tt", RuleSetID: rs.ID, Account: byID["acc-sup"], Code: "tt", Order: 30,
			Formula: "vat+ht"},
	}
	return rs
}

func newScanFixture(t *testing.T) (*usecase.ScanUseCase, *mocks.MockMoveRepository, string) {
	t.Helper()
	root := t.TempDir()
	moveRepo := mocks.NewMockMoveRepository()
	uc := usecase.NewScanUseCase(moveRepo, mocks.NewMockIDGenerator(), root, zerolog.Nop())
	return uc, moveRepo, root
}

func TestScanUseCase_ScanJournal(t *testing.T) {
	uc, _, root := newScanFixture(t)
	book := testBook(root)
	journal := testJournal()
	index := domain.NewAccountIndex(testAccounts())
	dir := filepath.Join(book.Path, journal.Code)

	writeDoc(t, dir, "20250401 - 2025001 - Office chairs - cap:100, memo:urgent.pdf")
	writeDoc(t, dir, "20250402 - Lunch - 570:25.5.pdf")
	writeDoc(t, dir, "random scribble.pdf")
	writeDoc(t, dir, "notes.txt") // extension not scanned at all
	if err := os.MkdirAll(filepath.Join(dir, "archive"), 0o755); err != nil {
		t.Fatal(err)
	}

	moves, lines, report, err := uc.ScanJournal(context.Background(), book, journal, index, dir, false)
	if err != nil {
		t.Fatalf("ScanJournal: %v", err)
	}

	if report.Processed != 2 || report.Skipped != 1 || report.Failed != 0 {
		t.Errorf("report = %+v, want 2 processed, 1 skipped", report)
	}
	if len(moves) != 2 {
		t.Fatalf("got %d moves, want 2", len(moves))
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	chairs := moves[0]
	if chairs.Document != "book1/FIN/20250401 - 2025001 - Office chairs - cap:100, memo:urgent.pdf" {
		t.Errorf("document = %q", chairs.Document)
	}
	if chairs.BookID != book.ID || chairs.JournalID != journal.ID || chairs.JournalCode != journal.Code {
		t.Errorf("move identity = %+v", chairs)
	}
	if chairs.Reference == nil || *chairs.Reference != "2025001" {
		t.Errorf("reference = %v, want 2025001", chairs.Reference)
	}
	if chairs.Label != "Office chairs" {
		t.Errorf("label = %q", chairs.Label)
	}

	// The memo token is not numeric and produces no line; cap resolves by
	// short alias, 570 by code.
	if lines[0].Account == nil || lines[0].Account.ID != "acc-cash" {
		t.Errorf("line 0 account = %v, want acc-cash", lines[0].Account)
	}
	if !lines[0].Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("line 0 amount = %s, want 100", lines[0].Amount)
	}
	if lines[1].Account == nil || lines[1].Account.ID != "acc-cash" {
		t.Errorf("line 1 account = %v, want acc-cash", lines[1].Account)
	}
	if !lines[1].Amount.Equal(decimal.RequireFromString("25.5")) {
		t.Errorf("line 1 amount = %s, want 25.5", lines[1].Amount)
	}
}

func TestScanUseCase_ScanJournal_UnresolvedAccountSurfaces(t *testing.T) {
	uc, _, root := newScanFixture(t)
	book := testBook(root)
	journal := testJournal()
	index := domain.NewAccountIndex(testAccounts())
	dir := filepath.Join(book.Path, journal.Code)

	writeDoc(t, dir, "20250403 - Mystery payment - zz:10.pdf")

	_, lines, _, err := uc.ScanJournal(context.Background(), book, journal, index, dir, false)
	if err != nil {
		t.Fatalf("ScanJournal: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].Account != nil {
		t.Errorf("account = %v, want nil for unresolved key", lines[0].Account)
	}
}

func TestScanUseCase_ScanJournal_Idempotence(t *testing.T) {
	uc, moveRepo, root := newScanFixture(t)
	book := testBook(root)
	journal := testJournal()
	index := domain.NewAccountIndex(testAccounts())
	dir := filepath.Join(book.Path, journal.Code)

	name := "20250401 - Known document - cap:100.pdf"
	writeDoc(t, dir, name)
	moveRepo.AddKnownDocument("book1/FIN/" + name)

	moves, _, report, err := uc.ScanJournal(context.Background(), book, journal, index, dir, false)
	if err != nil {
		t.Fatalf("ScanJournal: %v", err)
	}
	if len(moves) != 0 || report.Processed != 0 || report.Skipped != 1 {
		t.Errorf("known document not skipped: %d moves, report %+v", len(moves), report)
	}

	// force bypasses the filter and produces a fresh draft.
	moves, _, report, err = uc.ScanJournal(context.Background(), book, journal, index, dir, true)
	if err != nil {
		t.Fatalf("ScanJournal force: %v", err)
	}
	if len(moves) != 1 || report.Processed != 1 {
		t.Errorf("force scan: %d moves, report %+v", len(moves), report)
	}
}

func TestScanUseCase_ScanJournal_MissingDirectory(t *testing.T) {
	uc, _, root := newScanFixture(t)
	book := testBook(root)
	journal := testJournal()
	index := domain.NewAccountIndex(nil)

	moves, lines, report, err := uc.ScanJournal(context.Background(), book, journal, index,
		filepath.Join(book.Path, "FIN"), false)
	if err != nil {
		t.Fatalf("missing directory should scan empty, got %v", err)
	}
	if len(moves) != 0 || len(lines) != 0 || report != (usecase.ScanReport{}) {
		t.Errorf("moves=%d lines=%d report=%+v, want all empty", len(moves), len(lines), report)
	}
}

func TestScanUseCase_ScanRuleSet(t *testing.T) {
	uc, _, root := newScanFixture(t)
	book := testBook(root)
	journal := testJournal()
	accounts := testAccounts()
	ruleSet := testRuleSet(accounts)
	dir := filepath.Join(book.Path, ruleSet.Code)

	writeDoc(t, dir, "20250601 - 2025042 - Supplier invoice - ht:100.pdf")

	moves, lines, report, err := uc.ScanRuleSet(context.Background(), book, journal, ruleSet, dir, false)
	if err != nil {
		t.Fatalf("ScanRuleSet: %v", err)
	}

	if report.Processed != 1 || report.Failed != 0 {
		t.Errorf("report = %+v, want 1 processed", report)
	}
	if len(moves) != 1 {
		t.Fatalf("got %d moves, want 1", len(moves))
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}

	want := []string{"100", "21", "121"}
	for i, amount := range want {
		if !lines[i].Amount.Equal(decimal.RequireFromString(amount)) {
			t.Errorf("line %d amount = %s, want %s", i, lines[i].Amount, amount)
		}
	}
	if balance := domain.Balance(lines); !balance.IsZero() {
		t.Errorf("derived move does not balance: %s", balance)
	}
}

func TestScanUseCase_ScanRuleSet_FormulaFailureIsolatesDocument(t *testing.T) {
	uc, _, root := newScanFixture(t)
	book := testBook(root)
	journal := testJournal()
	accounts := testAccounts()

	ruleSet := testRuleSet(accounts)
	ruleSet.Rules[1].Formula = "nope + 1" // unknown name
	dir := filepath.Join(book.Path, ruleSet.Code)

	writeDoc(t, dir, "20250601 - Broken invoice - ht:100.pdf")

	moves, lines, report, err := uc.ScanRuleSet(context.Background(), book, journal, ruleSet, dir, false)
	if err != nil {
		t.Fatalf("a formula failure must not abort the scan: %v", err)
	}
	if report.Failed != 1 || report.Processed != 0 {
		t.Errorf("report = %+v, want 1 failed, 0 processed", report)
	}
	if len(moves) != 0 || len(lines) != 0 {
		t.Errorf("failed document produced %d moves, %d lines", len(moves), len(lines))
	}
}
