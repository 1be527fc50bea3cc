package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetpipe/internal/analytics"
	"budgetpipe/internal/domain"
)

// fakeInnerStore is a function-field mock of TransactionStore.
type fakeInnerStore struct {
	PutFunc            func(ctx context.Context, txn *domain.Transaction) error
	UpdateCategoryFunc func(ctx context.Context, userID, sk, category string, confidence float64, manual bool) (*domain.Transaction, error)
}

func (f *fakeInnerStore) Put(ctx context.Context, txn *domain.Transaction) error {
	return f.PutFunc(ctx, txn)
}
func (f *fakeInnerStore) Get(ctx context.Context, userID, sk string) (*domain.Transaction, error) {
	return nil, &domain.NotFoundError{Kind: "transaction", Key: sk}
}
func (f *fakeInnerStore) UpdateCategory(ctx context.Context, userID, sk, category string, confidence float64, manual bool) (*domain.Transaction, error) {
	return f.UpdateCategoryFunc(ctx, userID, sk, category, confidence, manual)
}
func (f *fakeInnerStore) ListUnassignedByStatement(ctx context.Context, userID, statementID string) ([]*domain.Transaction, error) {
	return nil, nil
}
func (f *fakeInnerStore) ListByUser(ctx context.Context, userID, statementID string) ([]*domain.Transaction, error) {
	return nil, nil
}
func (f *fakeInnerStore) DeleteByStatement(ctx context.Context, userID, statementID string) error {
	return nil
}

// recordingMirror captures every change event.
type recordingMirror struct {
	events []string
	err    error
}

func (m *recordingMirror) Record(ctx context.Context, event string, txn *domain.Transaction) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event+":"+txn.SK)
	return nil
}

func sampleTxn() *domain.Transaction {
	return domain.NewTransaction("u1", "s1", "chase", "1234", 0, "2024-03-15", "STARBUCKS", 5.75, "", time.Now())
}

func TestMirroredTransactionStore_Put(t *testing.T) {
	inner := &fakeInnerStore{
		PutFunc: func(ctx context.Context, txn *domain.Transaction) error { return nil },
	}
	mirror := &recordingMirror{}
	s := NewMirroredTransactionStore(inner, mirror)

	txn := sampleTxn()
	if err := s.Put(context.Background(), txn); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if len(mirror.events) != 1 || mirror.events[0] != analytics.EventInsert+":"+txn.SK {
		t.Errorf("events = %v, want one INSERT for %s", mirror.events, txn.SK)
	}
}

func TestMirroredTransactionStore_UpdateCategory(t *testing.T) {
	txn := sampleTxn()
	inner := &fakeInnerStore{
		UpdateCategoryFunc: func(ctx context.Context, userID, sk, category string, confidence float64, manual bool) (*domain.Transaction, error) {
			txn.Category = category
			return txn, nil
		},
	}
	mirror := &recordingMirror{}
	s := NewMirroredTransactionStore(inner, mirror)

	updated, err := s.UpdateCategory(context.Background(), "u1", txn.SK, "DINING", 0.9, false)
	if err != nil {
		t.Fatalf("UpdateCategory failed: %v", err)
	}
	if updated.Category != "DINING" {
		t.Errorf("Category = %q", updated.Category)
	}
	if len(mirror.events) != 1 || mirror.events[0] != analytics.EventModify+":"+txn.SK {
		t.Errorf("events = %v, want one MODIFY for %s", mirror.events, txn.SK)
	}
}

func TestMirroredTransactionStore_MirrorFailurePropagates(t *testing.T) {
	inner := &fakeInnerStore{
		PutFunc: func(ctx context.Context, txn *domain.Transaction) error { return nil },
		UpdateCategoryFunc: func(ctx context.Context, userID, sk, category string, confidence float64, manual bool) (*domain.Transaction, error) {
			return sampleTxn(), nil
		},
	}
	mirror := &recordingMirror{err: errors.New("warehouse unreachable")}
	s := NewMirroredTransactionStore(inner, mirror)

	// The write must look failed to the caller so redelivery retries it.
	if err := s.Put(context.Background(), sampleTxn()); err == nil {
		t.Error("Put must fail when the mirror write fails")
	}
	if _, err := s.UpdateCategory(context.Background(), "u1", "sk", "DINING", 0.9, false); err == nil {
		t.Error("UpdateCategory must fail when the mirror write fails")
	}
}

func TestMirroredTransactionStore_InnerFailureSkipsMirror(t *testing.T) {
	inner := &fakeInnerStore{
		PutFunc: func(ctx context.Context, txn *domain.Transaction) error {
			return errors.New("write rejected")
		},
	}
	mirror := &recordingMirror{}
	s := NewMirroredTransactionStore(inner, mirror)

	if err := s.Put(context.Background(), sampleTxn()); err == nil {
		t.Fatal("expected inner failure to propagate")
	}
	if len(mirror.events) != 0 {
		t.Errorf("mirror recorded %v for a failed write", mirror.events)
	}
}
