package mock

import "context"

// MockAnalyzer is a test double for ai.Analyzer.
// It allows custom behavior injection via function fields.
type MockAnalyzer struct {
	// AnalyzeFunc is called by Analyze if set.
	// If nil, returns an empty JSON object.
	AnalyzeFunc func(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error)

	callCount int
}

// NewMockAnalyzer creates a mock analyzer with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockAnalyzer().
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

// Analyze returns a canned response.
// Default behavior: an empty JSON object, which fails any stage's required
// field validation; tests that exercise the pipeline set AnalyzeFunc.
func (m *MockAnalyzer) Analyze(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	m.callCount++

	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, systemPrompt, userPrompt)
	}

	return []byte("{}"), nil
}

// CallCount returns the number of times Analyze was called.
func (m *MockAnalyzer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockAnalyzer) Reset() {
	m.callCount = 0
	m.AnalyzeFunc = nil
}
