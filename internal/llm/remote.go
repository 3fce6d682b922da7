package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RemoteClient talks to the hosted completion endpoint. The request and
// response bodies are the endpoint's native format, so no prompt template
// is involved.
type RemoteClient struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// NewRemoteClient creates a client for the hosted completion endpoint.
func NewRemoteClient(endpoint, apiKey string, timeout time.Duration) *RemoteClient {
	return &RemoteClient{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Timeout:  timeout,
	}
}

// Name returns provider name
func (c *RemoteClient) Name() string { return "remote" }

// Complete posts the request to the endpoint and returns its suggestion.
func (c *RemoteClient) Complete(ctx context.Context, req Request) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion endpoint returned status %s", resp.Status)
	}

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}

	return strings.TrimSpace(response.Suggestion), nil
}
