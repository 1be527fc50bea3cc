package classify

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Sampling configuration for classification calls. Low temperature keeps the
// output deterministic-leaning; the token cap bounds a full statement's
// worth of items.
const (
	modelTemperature     = 0.1
	modelTopP            = 0.9
	modelMaxOutputTokens = 4000
)

// ModelClient is the generative-model boundary: one prompt in, one
// generation out.
type ModelClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenAIModel invokes a Gemini model through the GenAI API.
type GenAIModel struct {
	client *genai.Client
	model  string
}

// NewGenAIModel creates a model client. Credentials come from the
// environment, as with the rest of the Google Cloud clients.
func NewGenAIModel(ctx context.Context, model string) (*GenAIModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGenAIModel: create genai client: %w", err)
	}
	return &GenAIModel{client: client, model: model}, nil
}

// Generate implements ModelClient.
func (m *GenAIModel) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](modelTemperature),
		TopP:            genai.Ptr[float32](modelTopP),
		MaxOutputTokens: modelMaxOutputTokens,
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Generate: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Generate: empty response from model")
	}
	return text, nil
}

var _ ModelClient = (*GenAIModel)(nil)
