package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tristore/internal/backend"
	"github.com/roach88/tristore/internal/testutil"
	"github.com/roach88/tristore/internal/triple"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type backendFactory struct {
	name string
	open func(t *testing.T) backend.Backend
}

// backendFactories lists every backend compiled into the test binary.
// rocksdb_test.go appends RocksDB under the rocksdb build tag.
var backendFactories = []backendFactory{
	{"memory", func(t *testing.T) backend.Backend {
		return backend.NewMemory(discardLogger())
	}},
	{"sqlite", func(t *testing.T) backend.Backend {
		b, err := backend.OpenSQLite(":memory:", backend.SQLiteOptions{}, discardLogger())
		require.NoError(t, err)
		return b
	}},
	{"badger", func(t *testing.T) backend.Backend {
		b, err := backend.OpenBadger("", backend.BadgerOptions{InMemory: true}, discardLogger())
		require.NoError(t, err)
		return b
	}},
}

// testutilOpts silences logging and pins created_at.
func testutilOpts() []Option {
	return []Option{
		WithLogger(discardLogger()),
		WithClock(testutil.NewDeterministicClock().Now),
	}
}

// createTestStore opens a store over b; opts override the defaults.
func createTestStore(t *testing.T, b backend.Backend, opts ...Option) *GraphStore {
	t.Helper()
	g, err := Open(context.Background(), b, append(testutilOpts(), opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { g.Close(context.Background()) })
	return g
}

func createMemoryStore(t *testing.T, opts ...Option) *GraphStore {
	t.Helper()
	return createTestStore(t, backend.NewMemory(discardLogger()), opts...)
}

// faultyBackend wraps a memory backend and misbehaves on demand.
type faultyBackend struct {
	*backend.Memory
	panicOnPut atomic.Bool
	failPut    atomic.Bool
	hidden     map[triple.ID]bool
	replaced   map[triple.ID]triple.Triple
}

var errDiskFull = errors.New("disk full")

func newFaultyBackend() *faultyBackend {
	return &faultyBackend{
		Memory: backend.NewMemory(discardLogger()),
		hidden:   make(map[triple.ID]bool),
		replaced: make(map[triple.ID]triple.Triple),
	}
}

func (f *faultyBackend) Put(ctx context.Context, id triple.ID, t triple.Triple) error {
	if f.panicOnPut.Load() {
		panic("backend exploded")
	}
	if f.failPut.Load() {
		return errDiskFull
	}
	return f.Memory.Put(ctx, id, t)
}

// Get pretends hidden IDs were deleted by another writer and serves
// replaced IDs with different content.
func (f *faultyBackend) Get(ctx context.Context, id triple.ID) (*triple.Triple, error) {
	if f.hidden[id] {
		return nil, nil
	}
	if t, ok := f.replaced[id]; ok {
		return &t, nil
	}
	return f.Memory.Get(ctx, id)
}
