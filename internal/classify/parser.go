package classify

import (
	"encoding/json"
	"fmt"
	"strings"

	"budgetpipe/internal/domain"
)

// ModelItem is one classification decision returned by the model.
type ModelItem struct {
	Index      int     `json:"index"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// ModelResponse is the fixed JSON shape the model must emit.
type ModelResponse struct {
	Items []ModelItem `json:"items"`
}

// ParseResponse parses raw model output into a ModelResponse. Markdown code
// fences and stray text around the JSON object are tolerated; anything that
// still fails to parse is a *domain.ModelResponseParseError, and the whole
// invocation is discarded.
func ParseResponse(raw string) (*ModelResponse, error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return nil, &domain.ModelResponseParseError{Cause: fmt.Errorf("empty model output")}
	}

	var resp ModelResponse
	if err := json.Unmarshal([]byte(clean), &resp); err != nil {
		return nil, &domain.ModelResponseParseError{Cause: err}
	}
	if resp.Items == nil {
		return nil, &domain.ModelResponseParseError{Cause: fmt.Errorf("missing \"items\" key")}
	}
	return &resp, nil
}

// cleanModelJSON strips Markdown fences and keeps only the outermost JSON
// object when the model ignored the no-extra-text instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
