// Package llm contains the provider clients used to generate answers.
// Each provider implements the Client interface so the application core can
// stay agnostic of whether answers come from a hosted OpenAI-compatible API
// or a local Ollama server. The Fallback client chains providers so a local
// model can take over when the hosted one is unreachable.
package llm
