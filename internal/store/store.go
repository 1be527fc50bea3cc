// Package store defines the keyed-store interfaces the pipeline and API
// depend on. Every mutation is a single-key upsert or update; correctness
// rests on key uniqueness, not on multi-record transactions.
package store

import (
	"context"

	"budgetpipe/internal/domain"
)

// TransactionStore persists extracted transactions.
type TransactionStore interface {
	// Put upserts one transaction by its (pk, sk) key.
	Put(ctx context.Context, txn *domain.Transaction) error

	// Get fetches one transaction, or a *domain.NotFoundError.
	Get(ctx context.Context, userID, sk string) (*domain.Transaction, error)

	// UpdateCategory sets category, confidence and the updated timestamp on
	// one transaction. manual marks a human override: the record is then
	// permanently excluded from automatic reclassification. Returns the
	// updated record, or a *domain.NotFoundError.
	UpdateCategory(ctx context.Context, userID, sk, category string, confidence float64, manual bool) (*domain.Transaction, error)

	// ListUnassignedByStatement returns the statement's transactions still
	// carrying the UNASSIGNED sentinel, in sort-key order. Manually edited
	// and previously classified records never appear here.
	ListUnassignedByStatement(ctx context.Context, userID, statementID string) ([]*domain.Transaction, error)

	// ListByUser returns a user's transactions in sort-key order, optionally
	// restricted to one statement.
	ListByUser(ctx context.Context, userID, statementID string) ([]*domain.Transaction, error)

	// DeleteByStatement removes all transactions for a statement. Used only
	// when reprocessing with purge enabled.
	DeleteByStatement(ctx context.Context, userID, statementID string) error
}

// StatementStore persists statement lifecycle records.
type StatementStore interface {
	Put(ctx context.Context, st *domain.Statement) error
	Get(ctx context.Context, userID, statementID string) (*domain.Statement, error)

	// SetStatus writes the statement's terminal status together with the
	// failure cause (empty on success) and the persisted line-item count.
	SetStatus(ctx context.Context, userID, statementID, status, cause string, lineItemCount int) error
}

// CategoryStore reads and writes the per-user category vocabulary. The
// pipeline itself only reads; creation and updates come from the API.
type CategoryStore interface {
	Put(ctx context.Context, cat *domain.Category) error
	List(ctx context.Context, userID string) ([]*domain.Category, error)

	// ListActiveNames returns the names of active categories in name order.
	// This is the classification vocabulary.
	ListActiveNames(ctx context.Context, userID string) ([]string, error)

	// Update patches active and/or hints on one category. Nil fields are
	// left untouched. Returns the updated record, or a *domain.NotFoundError.
	Update(ctx context.Context, userID, name string, active *bool, hints []string) (*domain.Category, error)
}
