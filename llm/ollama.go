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

// DefaultOllamaBaseURL is the default base URL for a local Ollama server.
const DefaultOllamaBaseURL = "http://localhost:11434"

// Ollama implements Client using the Ollama /api/chat endpoint.
// Model, when set, overrides the request's model name. This lets a failover
// chain fall back to a locally available model regardless of what the
// primary provider was asked for.
type Ollama struct {
	Model string

	baseURL string
	client  *http.Client
}

// NewOllama returns a Client that uses the Ollama API at baseURL.
// If baseURL is empty, DefaultOllamaBaseURL is used.
func NewOllama(baseURL string) *Ollama {
	u := strings.TrimSuffix(baseURL, "/")
	if u == "" {
		u = DefaultOllamaBaseURL
	}
	return &Ollama{
		baseURL: u,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
}

// Complete sends the chat history to Ollama and returns the assistant reply.
func (c *Ollama) Complete(ctx context.Context, req *Request) (string, error) {
	model := req.Model
	if c.Model != "" {
		model = c.Model
	}
	body, err := json.Marshal(ollamaChatRequest{Model: model, Messages: req.Messages, Stream: false})
	if err != nil {
		return "", fmt.Errorf("marshalling chat request : %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building chat request : %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling ollama : %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama: %s", resp.Status)
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding chat response : %w", err)
	}
	return out.Message.Content, nil
}
