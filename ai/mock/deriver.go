package mock

import (
	"context"

	"github.com/poiesic/resumatch/ai"
)

// MockSectionDeriver is a test double for ai.SectionDeriver.
type MockSectionDeriver struct {
	// DeriveSectionsFunc is called by DeriveSections if set.
	// If nil, returns empty sections with no rate info.
	DeriveSectionsFunc func(ctx context.Context, raw string) (*ai.DerivedSections, *ai.RateInfo, error)

	callCount int
}

// NewMockSectionDeriver creates a mock deriver. Returns the concrete type
// to allow behavior injection and call-count assertions.
func NewMockSectionDeriver() *MockSectionDeriver {
	return &MockSectionDeriver{}
}

// DeriveSections returns the injected behavior or empty sections.
func (m *MockSectionDeriver) DeriveSections(ctx context.Context, raw string) (*ai.DerivedSections, *ai.RateInfo, error) {
	m.callCount++

	if m.DeriveSectionsFunc != nil {
		return m.DeriveSectionsFunc(ctx, raw)
	}
	return &ai.DerivedSections{}, nil, nil
}

// CallCount returns the number of times DeriveSections was called.
func (m *MockSectionDeriver) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockSectionDeriver) Reset() {
	m.callCount = 0
	m.DeriveSectionsFunc = nil
}
