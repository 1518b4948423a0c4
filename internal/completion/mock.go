package completion

import (
	"context"
	"sync"
)

// Mock is a deterministic Reporter for tests. It returns canned errors in
// FIFO order (nil once the queue is empty) and records every call.
type Mock struct {
	mu    sync.Mutex
	errs  []error
	Calls []Record

	// Gate, when non-nil, blocks each call until it is closed or ctx is done.
	Gate chan struct{}
}

// NewMock creates a Mock with the given canned errors.
func NewMock(errs ...error) *Mock {
	return &Mock{errs: errs}
}

func (m *Mock) ReportCompletion(ctx context.Context, rec Record) error {
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, rec)
	if len(m.errs) == 0 {
		return nil
	}
	err := m.errs[0]
	m.errs = m.errs[1:]
	return err
}

// CallCount returns the number of ReportCompletion calls made.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
