package testutil

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"
)

// MockClock implements Clock interface for testing with controllable time.
// This is used across limiter and breaker tests to avoid actual time delays.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set sets the mock clock to a specific time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// StubResponse describes one scripted transport outcome.
type StubResponse struct {
	StatusCode int
	Header     http.Header
	Body       string
	Err        error // returned instead of a response when non-nil
}

// StubTransport replays a scripted sequence of responses and records the
// requests it received. The last scripted response repeats once the script
// is exhausted.
type StubTransport struct {
	mu       sync.Mutex
	script   []StubResponse
	requests []*http.Request
}

// NewStubTransport creates a StubTransport that replays the given responses.
func NewStubTransport(script ...StubResponse) *StubTransport {
	return &StubTransport{script: script}
}

// Do implements the transport contract used by the dispatcher.
func (st *StubTransport) Do(req *http.Request) (*http.Response, error) {
	st.mu.Lock()
	st.requests = append(st.requests, req)
	idx := len(st.requests) - 1
	if idx >= len(st.script) {
		idx = len(st.script) - 1
	}
	stub := st.script[idx]
	st.mu.Unlock()

	if stub.Err != nil {
		return nil, stub.Err
	}

	header := stub.Header
	if header == nil {
		header = http.Header{}
	}

	return &http.Response{
		StatusCode: stub.StatusCode,
		Header:     header,
		Body:       io.NopCloser(bytes.NewBufferString(stub.Body)),
		Request:    req,
	}, nil
}

// Calls returns the number of transport calls made.
func (st *StubTransport) Calls() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.requests)
}

// Request returns the i-th recorded request.
func (st *StubTransport) Request(i int) *http.Request {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.requests[i]
}
