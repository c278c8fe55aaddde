package domain

import "context"

// LLMProvider is the interface to the text-generation service. Implementations
// are HTTP clients (ollama) or mocks.
type LLMProvider interface {
	// Generate sends a prompt and returns the full response text.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStream sends a prompt with streaming enabled. Response fragments
	// are concatenated in receipt order to form the returned text; onChunk, if
	// non-nil, is called once per fragment as it arrives.
	GenerateStream(ctx context.Context, prompt string, onChunk func(string)) (string, error)
}

// Tokenizer counts tokens in a string. Used to report prompt sizes.
type Tokenizer interface {
	// CountTokens returns the number of tokens in the given text.
	CountTokens(text string) (int, error)
}
