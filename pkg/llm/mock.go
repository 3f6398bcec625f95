package llm

import (
	"context"
	"sync"
)

// Mock is a scripted Client for tests. Responses are consumed in order;
// when the script is exhausted the last response repeats. Every prompt is
// recorded for assertion.
type Mock struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
}

// NewMock creates a Mock that returns the given responses in order.
func NewMock(responses ...string) *Mock {
	return &Mock{responses: responses}
}

// NewMockError creates a Mock whose every call fails with err.
func NewMockError(err error) *Mock {
	return &Mock{err: err}
}

// Complete implements Client.
func (m *Mock) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", ErrEmptyContent
	}

	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

// Prompts returns a copy of all prompts seen so far.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Calls returns how many times Complete was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
