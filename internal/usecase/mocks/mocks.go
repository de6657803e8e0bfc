// Package mocks provides hand-written test doubles for the usecase ports.
// Each mock behaves as a small in-memory implementation unless a Func field
// overrides the method.
package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/iho/bookscan/internal/domain"
	"github.com/iho/bookscan/internal/usecase"
)

// MockMoveRepository is a mock implementation of MoveRepository.
type MockMoveRepository struct {
	mu    sync.RWMutex
	known map[string]bool

	Moves []*domain.Move
	Lines []*domain.Line

	FilterKnownDocumentsFunc func(ctx context.Context, documents []string) (map[string]bool, error)
	CreateBatchFunc          func(ctx context.Context, tx usecase.Transaction, moves []*domain.Move, lines []*domain.Line) ([]usecase.BatchFailure, error)
	ListExportLinesFunc      func(ctx context.Context, bookID string, years []int) ([]*domain.ExportLine, error)
}

func NewMockMoveRepository() *MockMoveRepository {
	return &MockMoveRepository{known: make(map[string]bool)}
}

// AddKnownDocument marks a document reference as already recorded.
func (m *MockMoveRepository) AddKnownDocument(document string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.known[document] = true
}

func (m *MockMoveRepository) FilterKnownDocuments(ctx context.Context, documents []string) (map[string]bool, error) {
	if m.FilterKnownDocumentsFunc != nil {
		return m.FilterKnownDocumentsFunc(ctx, documents)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]bool)
	for _, doc := range documents {
		if m.known[doc] {
			result[doc] = true
		}
	}
	return result, nil
}

func (m *MockMoveRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, moves []*domain.Move, lines []*domain.Line) ([]usecase.BatchFailure, error) {
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, tx, moves, lines)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Moves = append(m.Moves, moves...)
	m.Lines = append(m.Lines, lines...)
	for _, move := range moves {
		m.known[move.Document] = true
	}
	return nil, nil
}

func (m *MockMoveRepository) ListExportLines(ctx context.Context, bookID string, years []int) ([]*domain.ExportLine, error) {
	if m.ListExportLinesFunc != nil {
		return m.ListExportLinesFunc(ctx, bookID, years)
	}
	return nil, nil
}

// MockTemplateRepository is a mock implementation of TemplateRepository.
type MockTemplateRepository struct {
	Books    map[string]*domain.Book
	Journals []*domain.Journal
	Accounts []*domain.Account
	RuleSets []*domain.RuleSet

	GetBookFunc      func(ctx context.Context, id string) (*domain.Book, error)
	ListJournalsFunc func(ctx context.Context, templateID string) ([]*domain.Journal, error)
	ListAccountsFunc func(ctx context.Context, templateID string) ([]*domain.Account, error)
	ListRuleSetsFunc func(ctx context.Context, templateID string) ([]*domain.RuleSet, error)
}

func NewMockTemplateRepository() *MockTemplateRepository {
	return &MockTemplateRepository{Books: make(map[string]*domain.Book)}
}

func (m *MockTemplateRepository) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	if m.GetBookFunc != nil {
		return m.GetBookFunc(ctx, id)
	}
	if book, ok := m.Books[id]; ok {
		return book, nil
	}
	return nil, domain.ErrBookNotFound
}

func (m *MockTemplateRepository) ListJournals(ctx context.Context, templateID string) ([]*domain.Journal, error) {
	if m.ListJournalsFunc != nil {
		return m.ListJournalsFunc(ctx, templateID)
	}
	return m.Journals, nil
}

func (m *MockTemplateRepository) ListAccounts(ctx context.Context, templateID string) ([]*domain.Account, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx, templateID)
	}
	return m.Accounts, nil
}

func (m *MockTemplateRepository) ListRuleSets(ctx context.Context, templateID string) ([]*domain.RuleSet, error) {
	if m.ListRuleSetsFunc != nil {
		return m.ListRuleSetsFunc(ctx, templateID)
	}
	return m.RuleSets, nil
}

// MockScanLock is a mock implementation of ScanLock.
type MockScanLock struct {
	mu    sync.Mutex
	held  map[string]bool
	Calls []string

	AcquireFunc func(ctx context.Context, bookID string) (bool, error)
	ReleaseFunc func(ctx context.Context, bookID string) error
}

func NewMockScanLock() *MockScanLock {
	return &MockScanLock{held: make(map[string]bool)}
}

func (m *MockScanLock) Acquire(ctx context.Context, bookID string) (bool, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, bookID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "acquire:"+bookID)
	if m.held[bookID] {
		return false, nil
	}
	m.held[bookID] = true
	return true, nil
}

func (m *MockScanLock) Release(ctx context.Context, bookID string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, bookID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "release:"+bookID)
	delete(m.held, bookID)
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator. It generates
// sequential IDs for deterministic tests.
type MockIDGenerator struct {
	mu   sync.Mutex
	next int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return fmt.Sprintf("id-%03d", m.next)
}

// MockTransaction is a no-op transaction recording commit/rollback.
type MockTransaction struct {
	Committed  bool
	RolledBack bool
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTransactionManager hands out MockTransactions.
type MockTransactionManager struct {
	mu           sync.Mutex
	Transactions []*MockTransaction

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &MockTransaction{}
	m.Transactions = append(m.Transactions, tx)
	return tx, nil
}
