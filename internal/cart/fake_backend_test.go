package cart

import (
	"context"
	"sync"
)

type call struct {
	Op       string
	ID       int
	Quantity int
}

// BackendMock records calls and delegates to the configured funcs.
type BackendMock struct {
	mu    sync.Mutex
	calls []call

	ListFunc   func(ctx context.Context) ([]Line, error)
	AddFunc    func(ctx context.Context, productID, quantity int) ([]Line, error)
	UpdateFunc func(ctx context.Context, lineID, quantity int) ([]Line, error)
	RemoveFunc func(ctx context.Context, lineID int) ([]Line, error)
}

func (m *BackendMock) record(c call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

func (m *BackendMock) Calls() []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]call(nil), m.calls...)
}

func (m *BackendMock) List(ctx context.Context) ([]Line, error) {
	m.record(call{Op: "list"})
	if m.ListFunc == nil {
		return nil, nil
	}
	return m.ListFunc(ctx)
}

func (m *BackendMock) Add(ctx context.Context, productID, quantity int) ([]Line, error) {
	m.record(call{Op: "add", ID: productID, Quantity: quantity})
	if m.AddFunc == nil {
		return nil, nil
	}
	return m.AddFunc(ctx, productID, quantity)
}

func (m *BackendMock) Update(ctx context.Context, lineID, quantity int) ([]Line, error) {
	m.record(call{Op: "update", ID: lineID, Quantity: quantity})
	if m.UpdateFunc == nil {
		return nil, nil
	}
	return m.UpdateFunc(ctx, lineID, quantity)
}

func (m *BackendMock) Remove(ctx context.Context, lineID int) ([]Line, error) {
	m.record(call{Op: "remove", ID: lineID})
	if m.RemoveFunc == nil {
		return nil, nil
	}
	return m.RemoveFunc(ctx, lineID)
}
