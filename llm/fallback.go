package llm

import "context"

// Fallback tries primary first; if it returns an error, tries secondary.
// Use when the hosted provider may be unreachable but a local Ollama server
// can still answer.
type Fallback struct {
	Primary   Client
	Secondary Client
}

// Complete calls Primary.Complete; on any error, calls Secondary.Complete.
func (f *Fallback) Complete(ctx context.Context, req *Request) (string, error) {
	answer, err := f.Primary.Complete(ctx, req)
	if err != nil && f.Secondary != nil {
		return f.Secondary.Complete(ctx, req)
	}
	return answer, err
}
