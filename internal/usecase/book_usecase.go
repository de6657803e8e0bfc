package usecase

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/iho/bookscan/internal/domain"
)

// BookReport aggregates the outcome of one orchestrated book run: a direct
// journal pass and a derived rule-set pass, each submitted as one batch.
type BookReport struct {
	BookID   string         `json:"book_id"`
	Journals ScanReport     `json:"journals"`
	RuleSets ScanReport     `json:"rule_sets"`
	Moves    int            `json:"moves"`
	Lines    int            `json:"lines"`
	Rejected []BatchFailure `json:"-"`
}

// Total sums both passes.
func (r *BookReport) Total() ScanReport {
	total := r.Journals
	total.Merge(r.RuleSets)
	return total
}

// BookUseCase orchestrates scanning a ledger book: every configured journal
// directory in direct mode, every rule-set directory in derived mode, one
// persistence batch per pass.
type BookUseCase struct {
	templateRepo TemplateRepository
	moveRepo     MoveRepository
	txManager    TransactionManager
	scan         *ScanUseCase
	lock         ScanLock
	logger       zerolog.Logger
}

// NewBookUseCase creates a new BookUseCase.
func NewBookUseCase(
	templateRepo TemplateRepository,
	moveRepo MoveRepository,
	txManager TransactionManager,
	scan *ScanUseCase,
	lock ScanLock,
	logger zerolog.Logger,
) *BookUseCase {
	return &BookUseCase{
		templateRepo: templateRepo,
		moveRepo:     moveRepo,
		txManager:    txManager,
		scan:         scan,
		lock:         lock,
		logger:       logger,
	}
}

// RunBook scans the book's directories and submits the resulting drafts.
// The scan lock serializes runs per book; the idempotence filter plus the
// unique document constraint in the store keep re-runs from duplicating
// records either way.
func (uc *BookUseCase) RunBook(ctx context.Context, bookID string, force bool) (*BookReport, error) {
	book, err := uc.templateRepo.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	acquired, err := uc.lock.Acquire(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domain.ErrScanInProgress
	}
	defer func() {
		if err := uc.lock.Release(ctx, book.ID); err != nil {
			uc.logger.Warn().Err(err).Str("book", book.ID).Msg("failed to release scan lock")
		}
	}()

	journals, err := uc.templateRepo.ListJournals(ctx, book.TemplateID)
	if err != nil {
		return nil, err
	}
	accounts, err := uc.templateRepo.ListAccounts(ctx, book.TemplateID)
	if err != nil {
		return nil, err
	}
	ruleSets, err := uc.templateRepo.ListRuleSets(ctx, book.TemplateID)
	if err != nil {
		return nil, err
	}

	index := domain.NewAccountIndex(accounts)
	journalsByID := make(map[string]*domain.Journal, len(journals))
	for _, j := range journals {
		journalsByID[j.ID] = j
	}

	report := &BookReport{BookID: book.ID}

	// Journal pass: direct mode over <book.path>/<journal.code>.
	var moves []*domain.Move
	var lines []*domain.Line
	for _, journal := range journals {
		dir := filepath.Join(book.Path, journal.Code)
		m, l, rep, err := uc.scan.ScanJournal(ctx, book, journal, index, dir, force)
		if err != nil {
			return nil, err
		}
		report.Journals.Merge(rep)
		moves = append(moves, m...)
		lines = append(lines, l...)
	}
	if err := uc.submit(ctx, moves, lines, &report.Journals, report); err != nil {
		return nil, err
	}

	// Rule-set pass: derived mode over <book.path>/<ruleSet.code>.
	moves, lines = nil, nil
	for _, ruleSet := range ruleSets {
		journal := journalsByID[ruleSet.JournalID]
		if journal == nil {
			return nil, fmt.Errorf("rule set %s: %w", ruleSet.Code, domain.ErrJournalMismatch)
		}

		dir := filepath.Join(book.Path, ruleSet.Code)
		m, l, rep, err := uc.scan.ScanRuleSet(ctx, book, journal, ruleSet, dir, force)
		if err != nil {
			return nil, err
		}
		report.RuleSets.Merge(rep)
		moves = append(moves, m...)
		lines = append(lines, l...)
	}
	if err := uc.submit(ctx, moves, lines, &report.RuleSets, report); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("book", book.ID).
		Int("processed", report.Total().Processed).
		Int("skipped", report.Total().Skipped).
		Int("failed", report.Total().Failed).
		Int("moves", report.Moves).
		Int("lines", report.Lines).
		Msg("book scan completed")

	return report, nil
}

// submit persists one pass's drafts as a single batch. Documents rejected
// at the persistence boundary are reported and counted as failures; they
// never abort the surviving batch.
func (uc *BookUseCase) submit(ctx context.Context, moves []*domain.Move, lines []*domain.Line, pass *ScanReport, report *BookReport) error {
	if len(moves) == 0 {
		return nil
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	failures, err := uc.moveRepo.CreateBatch(ctx, tx, moves, lines)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	failedMoves := make(map[string]bool, len(failures))
	for _, failure := range failures {
		uc.logger.Error().
			Str("document", failure.Document).
			Err(failure.Err).
			Msg("document rejected by persistence")
		failedMoves[failure.Document] = true
		pass.Failed++
		pass.Processed--
	}
	report.Rejected = append(report.Rejected, failures...)

	survivingLines := 0
	moveDocs := make(map[string]string, len(moves))
	for _, move := range moves {
		moveDocs[move.ID] = move.Document
	}
	for _, line := range lines {
		if !failedMoves[moveDocs[line.MoveID]] {
			survivingLines++
		}
	}

	report.Moves += len(moves) - len(failures)
	report.Lines += survivingLines

	return nil
}
