package store

import (
	"context"
	"fmt"

	"budgetpipe/internal/analytics"
	"budgetpipe/internal/domain"
)

// MirroredTransactionStore decorates a TransactionStore so that every insert
// and category update is also recorded on the analytics change feed. Mirror
// failures propagate: the caller sees the write as failed and redelivers,
// giving the feed at-least-once semantics.
type MirroredTransactionStore struct {
	inner  TransactionStore
	mirror analytics.Mirror
}

// NewMirroredTransactionStore wraps inner with change-feed mirroring.
func NewMirroredTransactionStore(inner TransactionStore, mirror analytics.Mirror) *MirroredTransactionStore {
	return &MirroredTransactionStore{inner: inner, mirror: mirror}
}

func (s *MirroredTransactionStore) Put(ctx context.Context, txn *domain.Transaction) error {
	if err := s.inner.Put(ctx, txn); err != nil {
		return err
	}
	if err := s.mirror.Record(ctx, analytics.EventInsert, txn); err != nil {
		return fmt.Errorf("mirroring insert for %s: %w", txn.SK, err)
	}
	return nil
}

func (s *MirroredTransactionStore) UpdateCategory(ctx context.Context, userID, sk, category string, confidence float64, manual bool) (*domain.Transaction, error) {
	txn, err := s.inner.UpdateCategory(ctx, userID, sk, category, confidence, manual)
	if err != nil {
		return nil, err
	}
	if err := s.mirror.Record(ctx, analytics.EventModify, txn); err != nil {
		return nil, fmt.Errorf("mirroring update for %s: %w", sk, err)
	}
	return txn, nil
}

func (s *MirroredTransactionStore) Get(ctx context.Context, userID, sk string) (*domain.Transaction, error) {
	return s.inner.Get(ctx, userID, sk)
}

func (s *MirroredTransactionStore) ListUnassignedByStatement(ctx context.Context, userID, statementID string) ([]*domain.Transaction, error) {
	return s.inner.ListUnassignedByStatement(ctx, userID, statementID)
}

func (s *MirroredTransactionStore) ListByUser(ctx context.Context, userID, statementID string) ([]*domain.Transaction, error) {
	return s.inner.ListByUser(ctx, userID, statementID)
}

func (s *MirroredTransactionStore) DeleteByStatement(ctx context.Context, userID, statementID string) error {
	return s.inner.DeleteByStatement(ctx, userID, statementID)
}

var _ TransactionStore = (*MirroredTransactionStore)(nil)
