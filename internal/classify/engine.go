package classify

import (
	"context"

	"github.com/rs/zerolog"

	"budgetpipe/internal/store"
)

// Result reports one classification pass over a statement.
type Result struct {
	ClassifiedCount int
}

// Engine classifies a statement's still-unassigned transactions in one
// batched model call.
type Engine struct {
	categories   store.CategoryStore
	transactions store.TransactionStore
	model        ModelClient
	log          zerolog.Logger
}

// NewEngine wires an Engine.
func NewEngine(categories store.CategoryStore, transactions store.TransactionStore, model ModelClient, log zerolog.Logger) *Engine {
	return &Engine{
		categories:   categories,
		transactions: transactions,
		model:        model,
		log:          log,
	}
}

// ClassifyStatement classifies every transaction of the statement that still
// carries the UNASSIGNED sentinel. Re-querying the sentinel each invocation
// makes the pass idempotent and keeps manually edited records out of reach:
// a manual edit moves the category away from UNASSIGNED, so the record never
// enters the batch again.
func (e *Engine) ClassifyStatement(ctx context.Context, userID, statementID string) (*Result, error) {
	categories, err := e.categories.ListActiveNames(ctx, userID)
	if err != nil {
		return nil, err
	}

	txns, err := e.transactions.ListUnassignedByStatement(ctx, userID, statementID)
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return &Result{ClassifiedCount: 0}, nil
	}

	prompt := BuildPrompt(txns, categories)

	raw, err := e.model.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	resp, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}

	updated := 0
	for _, item := range resp.Items {
		// Out-of-range indices are model hallucination; skip them silently.
		if item.Index < 0 || item.Index >= len(txns) {
			e.log.Warn().
				Int("index", item.Index).
				Str("statement_id", statementID).
				Msg("Model returned out-of-range index")
			continue
		}

		txn := txns[item.Index]
		if _, err := e.transactions.UpdateCategory(ctx, userID, txn.SK, item.Category, item.Confidence, false); err != nil {
			return nil, err
		}
		updated++
	}

	e.log.Info().
		Str("statement_id", statementID).
		Int("classified", updated).
		Int("batch_size", len(txns)).
		Msg("Classification pass complete")

	return &Result{ClassifiedCount: updated}, nil
}
