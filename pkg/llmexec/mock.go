package llmexec

import (
	"context"
	"sync"
)

// MockClient returns scripted responses and errors for tests. Each call
// consumes the next scripted step; when the script is exhausted the last
// step repeats.
type MockClient struct {
	mu    sync.Mutex
	steps []MockStep
	calls int
}

// MockStep is one scripted outcome.
type MockStep struct {
	Response string
	Err      error
}

// NewMockClient creates a mock with the given script.
func NewMockClient(steps ...MockStep) *MockClient {
	if len(steps) == 0 {
		steps = []MockStep{{Response: "mock response"}}
	}
	return &MockClient{steps: steps}
}

// Complete returns the next scripted outcome.
func (m *MockClient) Complete(_ context.Context, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	if idx >= len(m.steps) {
		idx = len(m.steps) - 1
	}
	m.calls++
	step := m.steps[idx]
	return step.Response, step.Err
}

// Embed returns a fixed vector, or the scripted error for this call.
func (m *MockClient) Embed(ctx context.Context, _ string) ([]float64, error) {
	if _, err := m.Complete(ctx, ""); err != nil {
		return nil, err
	}
	return []float64{0.1, 0.2, 0.3}, nil
}

// Calls returns how many calls the mock has served.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
