package usecase

import (
	"context"

	"github.com/iho/bookscan/internal/domain"
)

// BatchFailure reports one document rejected at the persistence boundary.
type BatchFailure struct {
	Document string
	Err      error
}

// MoveRepository is the persistence port for moves and lines.
type MoveRepository interface {
	// FilterKnownDocuments returns the subset of candidate store-relative
	// paths already recorded as a move's document reference.
	FilterKnownDocuments(ctx context.Context, documents []string) (map[string]bool, error)

	// CreateBatch persists a pass's moves and lines inside tx. Documents
	// with a nil-account line, a template-mismatched account or an
	// already-recorded document reference are rejected individually and
	// reported; the rest of the batch still commits.
	CreateBatch(ctx context.Context, tx Transaction, moves []*domain.Move, lines []*domain.Line) ([]BatchFailure, error)

	// ListExportLines returns a book's persisted lines ordered by move
	// date, optionally restricted to years.
	ListExportLines(ctx context.Context, bookID string, years []int) ([]*domain.ExportLine, error)
}

// TemplateRepository is the read port for the template catalog.
type TemplateRepository interface {
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	ListJournals(ctx context.Context, templateID string) ([]*domain.Journal, error)
	ListAccounts(ctx context.Context, templateID string) ([]*domain.Account, error)
	// ListRuleSets returns rule sets with their line rules loaded,
	// accounts resolved.
	ListRuleSets(ctx context.Context, templateID string) ([]*domain.RuleSet, error)
}

// ScanLock serializes scan passes per book so concurrent submissions
// cannot race past the idempotence filter.
type ScanLock interface {
	Acquire(ctx context.Context, bookID string) (bool, error)
	Release(ctx context.Context, bookID string) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}
