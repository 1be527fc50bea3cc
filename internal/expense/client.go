// Package expense is the boundary to the external expense analysis service:
// an asynchronous document-understanding job reached through a
// submit / poll / fetch-pages protocol.
package expense

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is the extraction service boundary the pipeline depends on.
type Client interface {
	// StartAnalysis submits one analysis job for the given stored document
	// and returns the service's job identifier.
	StartAnalysis(ctx context.Context, bucket, key string) (string, error)

	// GetAnalysis fetches the job status and, once the job has succeeded,
	// one page of results. Pass the previous page's NextToken to continue;
	// an empty token fetches the first page.
	GetAnalysis(ctx context.Context, jobID, nextToken string) (*ResultPage, error)
}

// HTTPClient talks to the expense analysis service over its JSON API.
type HTTPClient struct {
	baseURL string
	httpc   *http.Client
}

// NewHTTPClient creates a client for the service at baseURL.
func NewHTTPClient(baseURL string, httpc *http.Client) *HTTPClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   httpc,
	}
}

type startRequest struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

type startResponse struct {
	JobID string `json:"jobId"`
}

// StartAnalysis implements Client.
func (c *HTTPClient) StartAnalysis(ctx context.Context, bucket, key string) (string, error) {
	body, err := json.Marshal(startRequest{Bucket: bucket, Key: key})
	if err != nil {
		return "", fmt.Errorf("StartAnalysis: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/expense/jobs", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("StartAnalysis: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp startResponse
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("StartAnalysis: %w", err)
	}
	return resp.JobID, nil
}

// GetAnalysis implements Client.
func (c *HTTPClient) GetAnalysis(ctx context.Context, jobID, nextToken string) (*ResultPage, error) {
	u := fmt.Sprintf("%s/v1/expense/jobs/%s", c.baseURL, url.PathEscape(jobID))
	if nextToken != "" {
		u += "?nextToken=" + url.QueryEscape(nextToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("GetAnalysis: build request: %w", err)
	}

	var page ResultPage
	if err := c.do(req, &page); err != nil {
		return nil, fmt.Errorf("GetAnalysis: %w", err)
	}
	return &page, nil
}

func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var _ Client = (*HTTPClient)(nil)
