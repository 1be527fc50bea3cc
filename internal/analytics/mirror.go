// Package analytics mirrors the transaction change feed to an append-only
// warehouse partitioned by calendar date.
package analytics

import (
	"context"

	"budgetpipe/internal/domain"
)

// Change event names.
const (
	EventInsert = "INSERT"
	EventModify = "MODIFY"
)

// Mirror receives every transaction insert and update, at least once. A
// failed mirror write must propagate to the caller so the upstream
// redelivery mechanism retries it; implementations never swallow errors.
type Mirror interface {
	Record(ctx context.Context, event string, txn *domain.Transaction) error
}

// Discard is a Mirror that drops all change records. Useful for commands
// that run without a warehouse configured.
type Discard struct{}

func (Discard) Record(ctx context.Context, event string, txn *domain.Transaction) error {
	return nil
}
