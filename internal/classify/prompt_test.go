package classify

import (
	"strings"
	"testing"
	"time"

	"budgetpipe/internal/domain"
)

func TestBuildPrompt(t *testing.T) {
	now := time.Now()
	txns := []*domain.Transaction{
		domain.NewTransaction("u1", "s1", "chase", "1234", 0, "2024-03-15", "Starbucks #1234", 5.75, "", now),
		domain.NewTransaction("u1", "s1", "chase", "1234", 1, "2024-03-16", "Kroger", 82.10, "", now),
	}
	categories := []string{"DINING", "GROCERIES"}

	prompt := BuildPrompt(txns, categories)

	for _, want := range []string{
		"- DINING\n",
		"- GROCERIES\n",
		"0 | STARBUCKS #1234 | $5.75\n",
		"1 | KROGER | $82.10\n",
		`{ "items": [ { "index": 0, "category": "CATEG", "confidence": 0.0 } ] }`,
		domain.CategoryUnassigned,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	now := time.Now()
	txns := []*domain.Transaction{
		domain.NewTransaction("u1", "s1", "chase", "1234", 0, "2024-03-15", "Merchant", 1.00, "", now),
	}

	a := BuildPrompt(txns, []string{"A", "B"})
	b := BuildPrompt(txns, []string{"A", "B"})
	if a != b {
		t.Error("prompt is not deterministic for identical input")
	}
}
