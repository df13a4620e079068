package llm

import "context"

// Message is a single chat message in provider wire order.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries the full message history for one completion call.
// Model is provider-specific (e.g. "gpt-4o-mini", "llama3.1").
type Request struct {
	Model    string
	Messages []Message
}

// Client sends a chat history to a provider and returns the reply text.
type Client interface {
	Complete(ctx context.Context, req *Request) (string, error)
}
