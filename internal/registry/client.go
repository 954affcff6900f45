// Package registry talks to the package registry's publish endpoint.
package registry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrMissingToken is returned when the publish step runs without a token.
var ErrMissingToken = fmt.Errorf("registry token is not set")

// RejectedError indicates the registry refused the publish request.
type RejectedError struct {
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("registry rejected publish: status %d: %s", e.Status, e.Body)
}

// Client publishes package artifacts.
type Client struct {
	endpoint string
	hc       *http.Client
}

// NewClient creates a client for the given publish endpoint URL.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		hc:       &http.Client{Timeout: 2 * time.Minute},
	}
}

// Publish uploads the artifact with bearer token auth. Any non-2xx response
// is a RejectedError; a missing token fails before any network traffic.
func (c *Client) Publish(ctx context.Context, token string, artifact []byte) error {
	if token == "" {
		return ErrMissingToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.endpoint, bytes.NewReader(artifact))
	if err != nil {
		return fmt.Errorf("failed to build publish request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("publish request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RejectedError{Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}
