package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/GeoRank-AI/georank-workflows/internal/providers/common"
)

// MockProvider is a scriptable AIProvider for testing. GenerateFunc can be
// overridden per test; call counts are safe for concurrent use.
type MockProvider struct {
	GenerateFunc func(ctx context.Context, systemPrompt, userPrompt string, opts common.GenerateOptions) (*common.GenerationResult, error)

	calls   int64
	mu      sync.Mutex
	prompts []string
}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Generate(ctx context.Context, systemPrompt, userPrompt string, opts common.GenerateOptions) (*common.GenerationResult, error) {
	atomic.AddInt64(&m.calls, 1)
	m.mu.Lock()
	m.prompts = append(m.prompts, userPrompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, systemPrompt, userPrompt, opts)
	}
	return &common.GenerationResult{
		Text:         `{"answer": "mock answer", "brands_mentioned": [], "cited_urls": []}`,
		InputTokens:  10,
		OutputTokens: 20,
		Model:        "mock-model",
	}, nil
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) SupportsWebSearch() bool { return false }

// Calls returns how many times Generate was invoked.
func (m *MockProvider) Calls() int {
	return int(atomic.LoadInt64(&m.calls))
}

// Prompts returns a copy of every user prompt seen so far.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
