package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bookscan/internal/docname"
	"github.com/iho/bookscan/internal/domain"
	"github.com/iho/bookscan/internal/rules"
)

// scanExtensions is the allowed set of document file extensions.
var scanExtensions = map[string]bool{
	"pdf":  true,
	"doc":  true,
	"odt":  true,
	"docx": true,
	"png":  true,
	"jpeg": true,
}

// ScanReport counts per-document outcomes of a scan pass.
type ScanReport struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Merge adds other's counts into r.
func (r *ScanReport) Merge(other ScanReport) {
	r.Processed += other.Processed
	r.Skipped += other.Skipped
	r.Failed += other.Failed
}

// ScanUseCase turns the documents under a directory into move and line
// drafts. It reads the file list and queries the idempotence index, nothing
// else: all writes belong to the orchestrator's batch submission.
type ScanUseCase struct {
	moveRepo  MoveRepository
	idGen     IDGenerator
	engine    *rules.Engine
	booksRoot string
	logger    zerolog.Logger
}

// NewScanUseCase creates a new ScanUseCase. booksRoot is the store root
// that document references are recorded relative to.
func NewScanUseCase(moveRepo MoveRepository, idGen IDGenerator, booksRoot string, logger zerolog.Logger) *ScanUseCase {
	return &ScanUseCase{
		moveRepo:  moveRepo,
		idGen:     idGen,
		engine:    rules.NewEngine(),
		booksRoot: booksRoot,
		logger:    logger,
	}
}

// document is one eligible file under a scanned directory.
type document struct {
	rel  string // store-relative path, the recorded reference
	stem string
}

// ScanJournal scans dir in direct mode: each raw value maps onto an account
// of the template's account set by code or short alias.
func (uc *ScanUseCase) ScanJournal(
	ctx context.Context,
	book *domain.Book,
	journal *domain.Journal,
	index *domain.AccountIndex,
	dir string,
	force bool,
) ([]*domain.Move, []*domain.Line, ScanReport, error) {
	var (
		moves  []*domain.Move
		lines  []*domain.Line
		report ScanReport
	)

	err := uc.scan(ctx, dir, force, &report, func(doc document, parsed *docname.Parsed) error {
		move := uc.newMove(book, journal, doc, parsed)
		moves = append(moves, move)
		lines = append(lines, uc.directLines(move, parsed.Values, index)...)
		return nil
	})
	if err != nil {
		return nil, nil, report, err
	}

	return moves, lines, report, nil
}

// ScanRuleSet scans dir in derived mode: numeric raw values feed the rule
// engine as external inputs and the computed non-zero rule outputs become
// lines. A failing formula aborts only its own document.
func (uc *ScanUseCase) ScanRuleSet(
	ctx context.Context,
	book *domain.Book,
	journal *domain.Journal,
	ruleSet *domain.RuleSet,
	dir string,
	force bool,
) ([]*domain.Move, []*domain.Line, ScanReport, error) {
	var (
		moves  []*domain.Move
		lines  []*domain.Line
		report ScanReport
	)

	err := uc.scan(ctx, dir, force, &report, func(doc document, parsed *docname.Parsed) error {
		move := uc.newMove(book, journal, doc, parsed)

		derived, err := uc.engine.Lines(ruleSet, move, amountInputs(parsed.Values))
		if err != nil {
			var evalErr *rules.EvaluationError
			if errors.As(err, &evalErr) {
				report.Failed++
				report.Processed--
				uc.logger.Error().
					Str("rule_set", evalErr.RuleSet).
					Str("rule", evalErr.Rule).
					Str("document", doc.rel).
					Err(evalErr.Err).
					Msg("formula evaluation failed")
				return nil
			}
			return err
		}

		moves = append(moves, move)
		lines = append(lines, derived...)
		return nil
	})
	if err != nil {
		return nil, nil, report, err
	}

	return moves, lines, report, nil
}

// scan lists eligible documents, applies the idempotence filter and the
// filename grammar, and hands each match to emit. Counts are recorded in
// report; emit may decrement Processed when it rejects a document itself.
func (uc *ScanUseCase) scan(
	ctx context.Context,
	dir string,
	force bool,
	report *ScanReport,
	emit func(doc document, parsed *docname.Parsed) error,
) error {
	docs, err := uc.listDocuments(dir)
	if err != nil {
		return err
	}

	if !force && len(docs) > 0 {
		candidates := make([]string, len(docs))
		for i, doc := range docs {
			candidates[i] = doc.rel
		}
		known, err := uc.moveRepo.FilterKnownDocuments(ctx, candidates)
		if err != nil {
			return err
		}

		kept := docs[:0]
		for _, doc := range docs {
			if known[doc.rel] {
				report.Skipped++
				continue
			}
			kept = append(kept, doc)
		}
		docs = kept
	}

	for _, doc := range docs {
		parsed, ok := docname.Parse(doc.stem)
		if !ok {
			report.Skipped++
			uc.logger.Debug().Str("document", doc.rel).Msg("file name does not match grammar, skipped")
			continue
		}

		report.Processed++
		if err := emit(doc, parsed); err != nil {
			return err
		}
	}

	return nil
}

// listDocuments lists regular files directly under dir with an allowed
// extension. A missing directory is an empty scan, not an error: a book
// need not have a subdirectory for every journal or rule set.
func (uc *ScanUseCase) listDocuments(dir string) ([]document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var docs []document
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		ext := strings.TrimPrefix(filepath.Ext(entry.Name()), ".")
		if !scanExtensions[ext] {
			continue
		}

		full := filepath.Join(dir, entry.Name())
		rel, err := filepath.Rel(uc.booksRoot, full)
		if err != nil {
			rel = full
		}

		docs = append(docs, document{
			rel:  filepath.ToSlash(rel),
			stem: strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
		})
	}

	return docs, nil
}

func (uc *ScanUseCase) newMove(book *domain.Book, journal *domain.Journal, doc document, parsed *docname.Parsed) *domain.Move {
	return &domain.Move{
		ID:          uc.idGen.Generate(),
		BookID:      book.ID,
		JournalID:   journal.ID,
		JournalCode: journal.Code,
		Document:    doc.rel,
		Date:        parsed.Date,
		Reference:   parsed.Reference,
		Label:       parsed.Label,
	}
}

// directLines maps raw values onto accounts. An unresolved key still yields
// a line, with a nil account: a misconfiguration that must surface at the
// persistence boundary instead of being swallowed here. Non-numeric tokens
// carry no amount and are ignored.
func (uc *ScanUseCase) directLines(move *domain.Move, values []domain.RawValue, index *domain.AccountIndex) []*domain.Line {
	var lines []*domain.Line
	for _, value := range values {
		if !value.Numeric {
			continue
		}
		lines = append(lines, &domain.Line{
			MoveID:  move.ID,
			Account: index.Resolve(value.Key),
			Amount:  value.Amount,
		})
	}
	return lines
}

// amountInputs keeps the numeric raw values as named external inputs.
func amountInputs(values []domain.RawValue) map[string]decimal.Decimal {
	inputs := make(map[string]decimal.Decimal, len(values))
	for _, value := range values {
		if value.Numeric {
			inputs[value.Key] = value.Amount
		}
	}
	return inputs
}
