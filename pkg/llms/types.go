package llms

import "context"

// Provider is a single-shot completion service: one prompt in, one text out.
// No tool use, no conversation state.
type Provider interface {
	// Complete sends the prompt to the given model and returns the
	// completion text. An empty model selects the provider's default.
	Complete(ctx context.Context, model, prompt string) (string, error)

	// ModelName returns the default model identifier.
	ModelName() string

	Close() error
}
