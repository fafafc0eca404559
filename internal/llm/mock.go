package llm

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error

	// Delay holds the response back; a context that ends first wins.
	Delay time.Duration
}

// MockProvider is a deterministic Provider for tests and offline runs.
// It returns canned responses in FIFO order and records all requests.
// Content is checked against the request schema like a real provider.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate returns the next canned response, or ErrProviderUnavailable when
// the queue is empty.
func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	if len(m.responses) == 0 {
		m.mu.Unlock()
		return nil, &ErrProviderUnavailable{}
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	m.mu.Unlock()

	if resp.Delay > 0 {
		t := time.NewTimer(resp.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	if resp.Err != nil {
		return nil, resp.Err
	}
	if err := validateResponse(req.Schema, resp.Content); err != nil {
		return nil, err
	}

	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request, or the zero Request.
func (m *MockProvider) LastCall() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return Request{}
	}
	return m.Calls[len(m.Calls)-1]
}
