package driven

import "context"

// Summariser condenses retrieved transcripts with a language model.
// This is an optional service - when nil, the monitor cannot raise alerts.
//
// Implementations may include:
//   - Gemini
//   - OpenAI
//   - Anthropic (Claude)
//   - Ollama (local models)
type Summariser interface {
	// Summarise runs prompt against the model under the given system
	// instructions and returns the trimmed response text.
	Summarise(ctx context.Context, prompt, instructions string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
