package store

import (
	"context"
	"sync"
)

// MemorySheet keeps the worksheet in process memory. ReadErr and WriteErr,
// when set, are returned by every read or write, simulating an unreachable backend.
type MemorySheet struct {
	mu       sync.Mutex
	values   [][]string
	ReadErr  error
	WriteErr error
}

// NewMemorySheet creates a sheet seeded with the given rows (header first)
func NewMemorySheet(rows ...[]string) *MemorySheet {
	m := &MemorySheet{}
	for _, r := range rows {
		m.values = append(m.values, append([]string(nil), r...))
	}
	return m
}

func (m *MemorySheet) Values(ctx context.Context) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	out := make([][]string, len(m.values))
	for i, r := range m.values {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (m *MemorySheet) Header(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if len(m.values) == 0 {
		return nil, nil
	}
	return append([]string(nil), m.values[0]...), nil
}

func (m *MemorySheet) WriteHeader(ctx context.Context, header []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	h := append([]string(nil), header...)
	if len(m.values) == 0 {
		m.values = [][]string{h}
	} else {
		m.values[0] = h
	}
	return nil
}

func (m *MemorySheet) AppendRow(ctx context.Context, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.values = append(m.values, append([]string(nil), row...))
	return nil
}

func (m *MemorySheet) Close() error { return nil }
