package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bookscan/internal/domain"
)

// TemplateRepository implements usecase.TemplateRepository over the
// template catalog tables.
type TemplateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository creates a new TemplateRepository.
func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

// GetBook retrieves a book by ID.
func (r *TemplateRepository) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	var book domain.Book
	err := r.pool.QueryRow(ctx,
		`SELECT id, template_id, name, path FROM books WHERE id = $1`, id,
	).Scan(&book.ID, &book.TemplateID, &book.Name, &book.Path)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}

	return &book, nil
}

// ListJournals lists a template's journals ordered by code.
func (r *TemplateRepository) ListJournals(ctx context.Context, templateID string) ([]*domain.Journal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, template_id, code, name FROM journals WHERE template_id = $1 ORDER BY code`,
		templateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var journals []*domain.Journal
	for rows.Next() {
		var journal domain.Journal
		if err := rows.Scan(&journal.ID, &journal.TemplateID, &journal.Code, &journal.Name); err != nil {
			return nil, err
		}
		journals = append(journals, &journal)
	}

	return journals, rows.Err()
}

// ListAccounts lists a template's account set ordered by code.
func (r *TemplateRepository) ListAccounts(ctx context.Context, templateID string) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, template_id, name, COALESCE(code, ''), COALESCE(short, ''), type
		 FROM accounts WHERE template_id = $1 ORDER BY code`,
		templateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// ListRuleSets lists a template's rule sets with their line rules loaded
// and target accounts resolved.
func (r *TemplateRepository) ListRuleSets(ctx context.Context, templateID string) ([]*domain.RuleSet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, template_id, journal_id, code, name
		 FROM move_rule_sets WHERE template_id = $1 ORDER BY code`,
		templateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*domain.RuleSet)
	var ruleSets []*domain.RuleSet
	var ids []string
	for rows.Next() {
		var rs domain.RuleSet
		if err := rows.Scan(&rs.ID, &rs.TemplateID, &rs.JournalID, &rs.Code, &rs.Name); err != nil {
			return nil, err
		}
		byID[rs.ID] = &rs
		ruleSets = append(ruleSets, &rs)
		ids = append(ids, rs.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ruleSets) == 0 {
		return nil, nil
	}

	ruleRows, err := r.pool.Query(ctx,
		`SELECT lr.id, lr.rule_set_id, lr.code, lr.name, lr.ord, lr.formula, lr.polarity,
		        a.id, a.template_id, a.name, COALESCE(a.code, ''), COALESCE(a.short, ''), a.type
		 FROM line_rules lr
		 JOIN accounts a ON a.id = lr.account_id
		 WHERE lr.rule_set_id = ANY($1)
		 ORDER BY lr.ord, lr.code`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer ruleRows.Close()

	for ruleRows.Next() {
		var (
			rule        domain.LineRule
			polarity    int
			accountType int
			account     domain.Account
		)
		if err := ruleRows.Scan(&rule.ID, &rule.RuleSetID, &rule.Code, &rule.Name, &rule.Order,
			&rule.Formula, &polarity,
			&account.ID, &account.TemplateID, &account.Name, &account.Code, &account.Short, &accountType); err != nil {
			return nil, err
		}

		rule.Polarity = domain.Polarity(polarity)
		account.Type = domain.AccountType(accountType)
		account.Polarity = account.Type.Polarity()
		rule.Account = &account

		if rs := byID[rule.RuleSetID]; rs != nil {
			rs.Rules = append(rs.Rules, &rule)
		}
	}

	return ruleSets, ruleRows.Err()
}

func scanAccount(rows pgx.Rows) (*domain.Account, error) {
	var (
		account     domain.Account
		accountType int
	)
	if err := rows.Scan(&account.ID, &account.TemplateID, &account.Name,
		&account.Code, &account.Short, &accountType); err != nil {
		return nil, err
	}

	account.Type = domain.AccountType(accountType)
	account.Polarity = account.Type.Polarity()
	return &account, nil
}
