// Package classify assigns categories to unclassified transactions in one
// batched generative-model call per statement. Prompt construction and
// response parsing are pure functions; only the model invocation itself
// touches the network.
package classify

import (
	"fmt"
	"strings"

	"budgetpipe/internal/domain"
)

// BuildPrompt renders the classification prompt for a batch of transactions
// against the user's category vocabulary. The output is deterministic for a
// given input: each transaction appears as `index | MERCHANT | $amount` in
// query-result order, and the model is instructed to answer with the fixed
// JSON shape ParseResponse expects.
//
// Batching the whole statement into one call amortizes model latency and
// lets the model see the full vocabulary and all peer transactions at once.
func BuildPrompt(txns []*domain.Transaction, categories []string) string {
	var cats strings.Builder
	for _, c := range categories {
		cats.WriteString("- " + c + "\n")
	}

	var items strings.Builder
	for i, txn := range txns {
		fmt.Fprintf(&items, "%d | %s | $%.2f\n", i, txn.MerchantNorm, txn.Amount)
	}

	return fmt.Sprintf(`You are a budgeting assistant. Categorize each transaction using ONLY the provided categories.
Return valid JSON. If unsure, select "%s". No extra text.

CATEGORIES:
%s
TASK:
For each line item, choose the best category.

OUTPUT SCHEMA:
{ "items": [ { "index": 0, "category": "CATEG", "confidence": 0.0 } ] }

LINE ITEMS:
%s`, domain.CategoryUnassigned, cats.String(), items.String())
}
