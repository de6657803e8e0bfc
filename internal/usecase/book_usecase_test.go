package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iho/bookscan/internal/domain"
	"github.com/iho/bookscan/internal/usecase"
	"github.com/iho/bookscan/internal/usecase/mocks"
)

type bookFixture struct {
	uc       *usecase.BookUseCase
	moveRepo *mocks.MockMoveRepository
	tmplRepo *mocks.MockTemplateRepository
	txMgr    *mocks.MockTransactionManager
	lock     *mocks.MockScanLock
	book     *domain.Book
}

func newBookFixture(t *testing.T) *bookFixture {
	t.Helper()
	root := t.TempDir()

	book := testBook(root)
	accounts := testAccounts()

	tmplRepo := mocks.NewMockTemplateRepository()
	tmplRepo.Books[book.ID] = book
	tmplRepo.Journals = []*domain.Journal{testJournal()}
	tmplRepo.Accounts = accounts
	tmplRepo.RuleSets = []*domain.RuleSet{testRuleSet(accounts)}

	moveRepo := mocks.NewMockMoveRepository()
	txMgr := mocks.NewMockTransactionManager()
	lock := mocks.NewMockScanLock()

	scan := usecase.NewScanUseCase(moveRepo, mocks.NewMockIDGenerator(), root, zerolog.Nop())
	uc := usecase.NewBookUseCase(tmplRepo, moveRepo, txMgr, scan, lock, zerolog.Nop())

	return &bookFixture{
		uc:       uc,
		moveRepo: moveRepo,
		tmplRepo: tmplRepo,
		txMgr:    txMgr,
		lock:     lock,
		book:     book,
	}
}

func TestBookUseCase_RunBook(t *testing.T) {
	f := newBookFixture(t)

	writeDoc(t, f.book.Path+"/FIN", "20250401 - 2025001 - Office chairs - cap:100.pdf")
	writeDoc(t, f.book.Path+"/vnt", "20250601 - 2025042 - Supplier invoice - ht:100.pdf")

	report, err := f.uc.RunBook(context.Background(), f.book.ID, false)
	if err != nil {
		t.Fatalf("RunBook: %v", err)
	}

	if report.Journals.Processed != 1 || report.RuleSets.Processed != 1 {
		t.Errorf("report = %+v, want one processed document per pass", report)
	}
	if report.Moves != 2 {
		t.Errorf("moves = %d, want 2", report.Moves)
	}
	if report.Lines != 4 {
		t.Errorf("lines = %d, want 4 (1 direct + 3 derived)", report.Lines)
	}

	// One batch per pass, both committed.
	if len(f.txMgr.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(f.txMgr.Transactions))
	}
	for i, tx := range f.txMgr.Transactions {
		if !tx.Committed || tx.RolledBack {
			t.Errorf("transaction %d committed=%v rolledback=%v", i, tx.Committed, tx.RolledBack)
		}
	}

	if len(f.moveRepo.Moves) != 2 || len(f.moveRepo.Lines) != 4 {
		t.Errorf("persisted %d moves, %d lines", len(f.moveRepo.Moves), len(f.moveRepo.Lines))
	}
}

// A second run over unchanged directories records nothing: every document
// is filtered out as already known.
func TestBookUseCase_RunBook_Rescan(t *testing.T) {
	f := newBookFixture(t)

	writeDoc(t, f.book.Path+"/FIN", "20250401 - 2025001 - Office chairs - cap:100.pdf")
	writeDoc(t, f.book.Path+"/vnt", "20250601 - 2025042 - Supplier invoice - ht:100.pdf")

	if _, err := f.uc.RunBook(context.Background(), f.book.ID, false); err != nil {
		t.Fatalf("first run: %v", err)
	}

	report, err := f.uc.RunBook(context.Background(), f.book.ID, false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if total := report.Total(); total.Processed != 0 || total.Skipped != 2 {
		t.Errorf("second run report = %+v, want everything skipped", total)
	}
	if report.Moves != 0 || report.Lines != 0 {
		t.Errorf("second run recorded %d moves, %d lines", report.Moves, report.Lines)
	}
	if len(f.moveRepo.Moves) != 2 {
		t.Errorf("store grew to %d moves on rescan", len(f.moveRepo.Moves))
	}
}

func TestBookUseCase_RunBook_EmptyBook(t *testing.T) {
	f := newBookFixture(t)

	report, err := f.uc.RunBook(context.Background(), f.book.ID, false)
	if err != nil {
		t.Fatalf("RunBook: %v", err)
	}
	if total := report.Total(); total != (usecase.ScanReport{}) {
		t.Errorf("report = %+v, want empty", total)
	}
	// No drafts, no transactions.
	if len(f.txMgr.Transactions) != 0 {
		t.Errorf("opened %d transactions for an empty book", len(f.txMgr.Transactions))
	}
}

func TestBookUseCase_RunBook_BookNotFound(t *testing.T) {
	f := newBookFixture(t)

	_, err := f.uc.RunBook(context.Background(), "missing", false)
	if !errors.Is(err, domain.ErrBookNotFound) {
		t.Errorf("error = %v, want ErrBookNotFound", err)
	}
}

func TestBookUseCase_RunBook_LockHeld(t *testing.T) {
	f := newBookFixture(t)
	f.lock.AcquireFunc = func(ctx context.Context, bookID string) (bool, error) {
		return false, nil
	}

	_, err := f.uc.RunBook(context.Background(), f.book.ID, false)
	if !errors.Is(err, domain.ErrScanInProgress) {
		t.Errorf("error = %v, want ErrScanInProgress", err)
	}
}

func TestBookUseCase_RunBook_ReleasesLock(t *testing.T) {
	f := newBookFixture(t)

	if _, err := f.uc.RunBook(context.Background(), f.book.ID, false); err != nil {
		t.Fatalf("RunBook: %v", err)
	}

	want := []string{"acquire:" + f.book.ID, "release:" + f.book.ID}
	if len(f.lock.Calls) != len(want) {
		t.Fatalf("lock calls = %v, want %v", f.lock.Calls, want)
	}
	for i := range want {
		if f.lock.Calls[i] != want[i] {
			t.Fatalf("lock calls = %v, want %v", f.lock.Calls, want)
		}
	}
}

func TestBookUseCase_RunBook_RuleSetWithUnknownJournal(t *testing.T) {
	f := newBookFixture(t)
	f.tmplRepo.RuleSets[0].JournalID = "jrn-missing"

	_, err := f.uc.RunBook(context.Background(), f.book.ID, false)
	if !errors.Is(err, domain.ErrJournalMismatch) {
		t.Errorf("error = %v, want ErrJournalMismatch", err)
	}
}

// A document rejected at the persistence boundary counts as failed without
// aborting the committed batch around it.
func TestBookUseCase_RunBook_BatchFailureAccounting(t *testing.T) {
	f := newBookFixture(t)

	writeDoc(t, f.book.Path+"/FIN", "20250401 - First - cap:100.pdf")
	writeDoc(t, f.book.Path+"/FIN", "20250402 - Second - cap:200.pdf")

	rejected := "book1/FIN/20250401 - First - cap:100.pdf"
	f.moveRepo.CreateBatchFunc = func(ctx context.Context, tx usecase.Transaction, moves []*domain.Move, lines []*domain.Line) ([]usecase.BatchFailure, error) {
		return []usecase.BatchFailure{{Document: rejected, Err: domain.ErrDuplicateDocument}}, nil
	}

	report, err := f.uc.RunBook(context.Background(), f.book.ID, false)
	if err != nil {
		t.Fatalf("RunBook: %v", err)
	}

	if report.Journals.Processed != 1 || report.Journals.Failed != 1 {
		t.Errorf("journal report = %+v, want 1 processed, 1 failed", report.Journals)
	}
	if report.Moves != 1 || report.Lines != 1 {
		t.Errorf("moves=%d lines=%d, want the surviving document only", report.Moves, report.Lines)
	}
	if len(report.Rejected) != 1 || report.Rejected[0].Document != rejected {
		t.Errorf("rejected = %+v", report.Rejected)
	}
	if !f.txMgr.Transactions[0].Committed {
		t.Error("batch with partial failures must still commit")
	}
}
