// Package gcs wraps the statement bucket: signed upload URLs for the
// frontend and object reads for tooling.
package gcs

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// Client holds a shared storage client scoped to one bucket.
type Client struct {
	client *storage.Client
	bucket string
}

// NewClient creates a bucket client using ambient credentials.
func NewClient(ctx context.Context, bucket string) (*Client, error) {
	c, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Client{client: c, bucket: bucket}, nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.client.Close()
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// SignedUploadURL issues a V4 signed PUT URL for the given object.
func (c *Client) SignedUploadURL(object, contentType string, expires time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Method:      "PUT",
		Expires:     time.Now().Add(expires),
		ContentType: contentType,
		Scheme:      storage.SigningSchemeV4,
	}
	url, err := c.client.Bucket(c.bucket).SignedURL(object, opts)
	if err != nil {
		return "", fmt.Errorf("signing upload URL for %s: %w", object, err)
	}
	return url, nil
}

// Fetch downloads one object's bytes.
func (c *Client) Fetch(ctx context.Context, object string) ([]byte, error) {
	rc, err := c.client.Bucket(c.bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading object %s/%s: %w", c.bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading object bytes: %w", err)
	}
	return data, nil
}
