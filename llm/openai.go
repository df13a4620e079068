package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// DefaultOpenAIBaseURL is the default base URL for the hosted OpenAI API.
// Any OpenAI-compatible gateway works by pointing BaseURL elsewhere.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI implements Client using the Chat Completions API.
type OpenAI struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewOpenAI returns a Client for an OpenAI-compatible endpoint.
// If baseURL is empty, DefaultOpenAIBaseURL is used.
func NewOpenAI(baseURL, apiKey string) *OpenAI {
	u := strings.TrimSuffix(baseURL, "/")
	if u == "" {
		u = DefaultOpenAIBaseURL
	}
	return &OpenAI{
		baseURL: u,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type openAIRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type openAIResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete sends the chat history to the Chat Completions endpoint and returns
// the assistant reply. Rate limits and server errors are retried with a
// fibonacci backoff before giving up.
func (c *OpenAI) Complete(ctx context.Context, req *Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("openai: API key not set")
	}

	body, err := json.Marshal(openAIRequest{Model: req.Model, Messages: req.Messages})
	if err != nil {
		return "", fmt.Errorf("marshalling completion request : %w", err)
	}

	var answer string
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("building completion request : %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(httpReq)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("calling openai : %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("openai: %s", resp.Status))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("openai: %s", resp.Status)
		}

		var out openAIResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decoding completion response : %w", err)
		}
		if len(out.Choices) == 0 {
			return fmt.Errorf("openai: no choices in response")
		}
		answer = out.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return answer, nil
}
