package backend

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/tristore/internal/triple"
)

// Memory is a process-local backend. Blobs are kept encoded so SizeBytes
// and the decode path behave like the persistent backends.
type Memory struct {
	mu     sync.RWMutex
	rows   map[triple.ID][]byte
	size   int64
	logger *slog.Logger
}

var _ Backend = (*Memory)(nil)

// NewMemory returns an empty memory backend.
func NewMemory(logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{rows: make(map[triple.ID][]byte), logger: logger}
}

func (m *Memory) Name() string { return string(KindMemory) }

func (m *Memory) Put(_ context.Context, id triple.ID, t triple.Triple) error {
	blob := triple.Encode(t)

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.rows[id]; ok {
		m.size -= int64(len(old))
	} else {
		m.size += triple.IDSize
	}
	m.rows[id] = blob
	m.size += int64(len(blob))
	return nil
}

func (m *Memory) Get(_ context.Context, id triple.ID) (*triple.Triple, error) {
	m.mu.RLock()
	blob, ok := m.rows[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodePoint(m.Name(), id, blob)
}

func (m *Memory) Delete(_ context.Context, id triple.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.rows[id]
	if !ok {
		return false, nil
	}
	delete(m.rows, id)
	m.size -= int64(len(blob)) + triple.IDSize
	return true, nil
}

func (m *Memory) All(_ context.Context) ([]triple.Triple, error) {
	m.mu.RLock()
	ids := make([]triple.ID, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, triple.ID.Compare)

	out := make([]triple.Triple, 0, len(ids))
	for _, id := range ids {
		if t, ok := decodeRow(m.logger, m.Name(), id[:], m.rows[id]); ok {
			out = append(out, t)
		}
	}
	m.mu.RUnlock()
	return out, nil
}

func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows), nil
}

func (m *Memory) SizeBytes(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size, nil
}

func (m *Memory) Flush(_ context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

// putRaw stores an arbitrary blob. Tests use it to plant corrupt rows.
func (m *Memory) putRaw(id triple.ID, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[id] = blob
	return nil
}
