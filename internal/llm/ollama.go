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

// DefaultOllamaEndpoint is the generate endpoint of a local Ollama install.
const DefaultOllamaEndpoint = "http://localhost:11434/api/generate"

// OllamaClient represents an Ollama client for local LLM interactions
type OllamaClient struct {
	Endpoint string
	Model    string
	Timeout  time.Duration

	// PromptTemplate overrides DefaultPromptTemplate when set.
	PromptTemplate string
}

// NewOllamaClient creates a new Ollama client
func NewOllamaClient(endpoint, model string, timeout time.Duration) *OllamaClient {
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}
	return &OllamaClient{
		Endpoint: endpoint,
		Model:    model,
		Timeout:  timeout,
	}
}

// ollamaRequest represents the JSON structure expected by Ollama
type ollamaRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// ollamaResponse represents the response from Ollama
type ollamaResponse struct {
	Response string `json:"response"`
}

// Name returns provider name
func (c *OllamaClient) Name() string { return "ollama" }

// Complete renders the prompt template and asks Ollama for a continuation.
func (c *OllamaClient) Complete(ctx context.Context, req Request) (string, error) {
	prompt := BuildPrompt(c.PromptTemplate, req)

	reqBody := ollamaRequest{
		Model:  c.Model,
		Prompt: prompt,
		Stream: false,
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode Ollama request: %w", err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build Ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request to Ollama failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Ollama returned status %s", resp.Status)
	}

	var response ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode Ollama response: %w", err)
	}

	return strings.TrimSpace(response.Response), nil
}

// IsAvailable checks if the Ollama service is available
func (c *OllamaClient) IsAvailable() bool {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(strings.Replace(c.Endpoint, "/api/generate", "/api/tags", 1))
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
