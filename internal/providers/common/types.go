// internal/providers/common/types.go
package common

// GenerationResult is the raw output of one model call, before any
// domain-level parsing.
// Defined here to avoid import cycles between providers and services.
type GenerationResult struct {
	Text         string
	CitedURLs    []string
	InputTokens  int
	OutputTokens int
	Model        string
}

// GenerateOptions tunes a single generation call.
type GenerateOptions struct {
	WebSearch   bool
	Temperature float64
	MaxTokens   int

	// SchemaName and Schema request a structured-output response when the
	// provider supports it. Schema is a JSON-schema value produced by
	// reflection; nil means freeform text.
	SchemaName string
	Schema     interface{}
}
