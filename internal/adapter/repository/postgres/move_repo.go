package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/bookscan/internal/domain"
	"github.com/iho/bookscan/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// MoveRepository implements usecase.MoveRepository. Read queries go through
// the retrier; batch writes do not, they run inside the caller's transaction
// and cannot be replayed independently.
type MoveRepository struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewMoveRepository creates a new MoveRepository.
func NewMoveRepository(pool *pgxpool.Pool, retrier *Retrier) *MoveRepository {
	return &MoveRepository{pool: pool, retrier: retrier}
}

// FilterKnownDocuments returns the subset of candidate documents already
// recorded as a move's document reference. Exact string match only.
func (r *MoveRepository) FilterKnownDocuments(ctx context.Context, documents []string) (map[string]bool, error) {
	var known map[string]bool

	err := r.retrier.Retry(ctx, func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT document FROM moves WHERE document = ANY($1)`,
			documents,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		known = make(map[string]bool)
		for rows.Next() {
			var document string
			if err := rows.Scan(&document); err != nil {
				return err
			}
			known[document] = true
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return known, nil
}

// CreateBatch persists a pass's moves and their lines inside tx. Each
// document gets its own savepoint: a rejected document (nil account,
// template mismatch, duplicate reference) is rolled back and reported
// while the rest of the batch proceeds. The unique index on
// moves.document is the final backstop against concurrent duplicates.
func (r *MoveRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, moves []*domain.Move, lines []*domain.Line) ([]usecase.BatchFailure, error) {
	pgxTx := tx.(*Tx).PgxTx()

	linesByMove := make(map[string][]*domain.Line, len(moves))
	for _, line := range lines {
		linesByMove[line.MoveID] = append(linesByMove[line.MoveID], line)
	}

	templates, err := r.bookTemplates(ctx, pgxTx, moves)
	if err != nil {
		return nil, err
	}

	var failures []usecase.BatchFailure
	for _, move := range moves {
		moveLines := linesByMove[move.ID]

		if err := validateLines(move, moveLines, templates[move.BookID]); err != nil {
			failures = append(failures, usecase.BatchFailure{Document: move.Document, Err: err})
			continue
		}

		if err := r.createMove(ctx, pgxTx, move, moveLines); err != nil {
			failures = append(failures, usecase.BatchFailure{Document: move.Document, Err: err})
		}
	}

	return failures, nil
}

func (r *MoveRepository) bookTemplates(ctx context.Context, tx pgxQuerier, moves []*domain.Move) (map[string]string, error) {
	bookIDs := make([]string, 0, 1)
	seen := make(map[string]bool)
	for _, move := range moves {
		if !seen[move.BookID] {
			seen[move.BookID] = true
			bookIDs = append(bookIDs, move.BookID)
		}
	}

	rows, err := tx.Query(ctx, `SELECT id, template_id FROM books WHERE id = ANY($1)`, bookIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make(map[string]string, len(bookIDs))
	for rows.Next() {
		var id, templateID string
		if err := rows.Scan(&id, &templateID); err != nil {
			return nil, err
		}
		templates[id] = templateID
	}

	return templates, rows.Err()
}

func validateLines(move *domain.Move, lines []*domain.Line, bookTemplateID string) error {
	for _, line := range lines {
		if line.Account == nil {
			return fmt.Errorf("%w: move %s", domain.ErrNilAccount, move.FullReference())
		}
		if line.Account.TemplateID != bookTemplateID {
			return fmt.Errorf("%w: account %s", domain.ErrTemplateMismatch, line.Account.Code)
		}
	}
	return nil
}

// createMove inserts one move and its lines under a savepoint.
func (r *MoveRepository) createMove(ctx context.Context, tx pgxTxLike, move *domain.Move, lines []*domain.Line) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return err
	}

	if err := insertMove(ctx, sp, move, lines); err != nil {
		_ = sp.Rollback(ctx)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateDocument, move.Document)
		}
		return err
	}

	return sp.Commit(ctx)
}

func insertMove(ctx context.Context, sp pgxQuerier, move *domain.Move, lines []*domain.Line) error {
	var reference *string
	if move.Reference != nil {
		reference = move.Reference
	}

	_, err := sp.Exec(ctx, `
		INSERT INTO moves (id, book_id, journal_id, document, date, reference, label, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		move.ID, move.BookID, move.JournalID, move.Document, move.Date, reference, move.Label, time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	for _, line := range lines {
		_, err := sp.Exec(ctx, `
			INSERT INTO lines (move_id, account_id, amount)
			VALUES ($1, $2, $3)`,
			line.MoveID, line.Account.ID, line.Amount.String(),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// ListExportLines returns a book's persisted lines ordered by move date.
// Account codes are right-padded to the long form used in exports.
func (r *MoveRepository) ListExportLines(ctx context.Context, bookID string, years []int) ([]*domain.ExportLine, error) {
	query := `
		SELECT m.date, j.code, rpad(a.code, greatest(length(a.code), 6), '0'),
		       COALESCE(m.reference, ''), m.label,
		       l.amount::text, a.type, m.document
		FROM lines l
		JOIN moves m ON m.id = l.move_id
		JOIN journals j ON j.id = m.journal_id
		JOIN accounts a ON a.id = l.account_id
		WHERE m.book_id = $1`
	args := []any{bookID}

	if len(years) > 0 {
		query += ` AND EXTRACT(YEAR FROM m.date)::int = ANY($2)`
		args = append(args, years)
	}
	query += ` ORDER BY m.date, m.id`

	var exports []*domain.ExportLine

	err := r.retrier.Retry(ctx, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		exports = nil
		for rows.Next() {
			var (
				export      domain.ExportLine
				amount      string
				accountType int
			)
			if err := rows.Scan(&export.Date, &export.Journal, &export.Account, &export.Reference,
				&export.Label, &amount, &accountType, &export.Document); err != nil {
				return err
			}

			export.Amount, err = decimal.NewFromString(amount)
			if err != nil {
				return err
			}

			line := domain.Line{
				Account: &domain.Account{Polarity: domain.AccountType(accountType).Polarity()},
				Amount:  export.Amount,
			}
			export.IsDebit = line.IsDebit()
			export.IsCredit = line.IsCredit()

			exports = append(exports, &export)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return exports, nil
}
