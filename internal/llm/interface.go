// Package llm sends prompts to hosted language models.
package llm

import "context"

// Client completes a single prompt
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	// Name is "provider/model", for logs
	Name() string
}

// Request is one system+user prompt pair
type Request struct {
	System      string
	Prompt      string
	// Temperature is always sent, so 0 means deterministic sampling
	Temperature float64
	MaxTokens   int
}
