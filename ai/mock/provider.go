package mock

import "github.com/poiesic/resumatch/ai"

// MockProvider is a test double for ai.Provider bundling the mock
// embedder and section deriver.
type MockProvider struct {
	embedder *MockEmbedder
	deriver  *MockSectionDeriver
}

// NewMockProvider creates a provider with default deterministic mocks.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		deriver:  NewMockSectionDeriver(),
	}
}

// Embedder returns the mock embedder as the ai.Embedder interface.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// SectionDeriver returns the mock deriver as the ai.SectionDeriver interface.
func (p *MockProvider) SectionDeriver() ai.SectionDeriver {
	return p.deriver
}

// GetMockEmbedder returns the concrete mock for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockSectionDeriver returns the concrete mock for test assertions.
func (p *MockProvider) GetMockSectionDeriver() *MockSectionDeriver {
	return p.deriver
}

// Close is a no-op for mocks.
func (p *MockProvider) Close() error {
	return nil
}
