package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/tristore/internal/triple"
)

// Backend is the persistence contract the graph store is built on.
type Backend interface {
	// Name identifies the implementation in logs, errors and stats.
	Name() string

	// Put stores t under id, replacing any previous blob.
	Put(ctx context.Context, id triple.ID, t triple.Triple) error

	// Get returns the triple stored under id, or nil if there is none.
	Get(ctx context.Context, id triple.ID) (*triple.Triple, error)

	// Delete removes id and reports whether it existed.
	Delete(ctx context.Context, id triple.ID) (bool, error)

	// All returns every decodable triple, ordered by ID.
	All(ctx context.Context) ([]triple.Triple, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// SizeBytes estimates the storage footprint. Only the memory backend
	// reports an exact figure.
	SizeBytes(ctx context.Context) (int64, error)

	// Flush pushes buffered writes to durable storage.
	Flush(ctx context.Context) error

	// Close releases the backend. It must not be used afterwards.
	Close() error
}

// Kind selects a backend implementation.
type Kind string

const (
	KindMemory  Kind = "memory"
	KindSQLite  Kind = "sqlite"
	KindRocksDB Kind = "rocksdb"
	KindBadger  Kind = "badger"
)

// ErrUnsupported is returned by Open for kinds not compiled into the binary.
var ErrUnsupported = errors.New("backend not supported in this build")

// Options configures Open.
type Options struct {
	Kind   Kind
	Path   string
	Logger *slog.Logger

	SQLite SQLiteOptions
	Badger BadgerOptions
}

// SQLiteOptions tunes the SQLite backend.
type SQLiteOptions struct {
	BusyTimeout time.Duration
	Synchronous string // OFF | NORMAL | FULL | EXTRA
}

// BadgerOptions tunes the Badger backend.
type BadgerOptions struct {
	InMemory   bool
	SyncWrites bool
}

// Open constructs the backend selected by opts.Kind.
func Open(opts Options) (Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch opts.Kind {
	case KindMemory, "":
		return NewMemory(logger), nil
	case KindSQLite:
		return OpenSQLite(opts.Path, opts.SQLite, logger)
	case KindRocksDB:
		return OpenRocksDB(opts.Path, logger)
	case KindBadger:
		return OpenBadger(opts.Path, opts.Badger, logger)
	default:
		return nil, fmt.Errorf("open backend: unknown kind %q", opts.Kind)
	}
}

// Kinds lists the backend kinds compiled into this binary.
func Kinds() []Kind {
	kinds := []Kind{KindMemory, KindSQLite, KindBadger}
	if rocksDBAvailable {
		kinds = append(kinds, KindRocksDB)
	}
	return kinds
}

// decodeRow decodes one scanned blob. Undecodable rows are logged and
// reported as skipped rather than failing the scan.
func decodeRow(logger *slog.Logger, backend string, key, data []byte) (triple.Triple, bool) {
	t, err := triple.Decode(data)
	if err != nil {
		logger.Warn("skipping undecodable row",
			"backend", backend,
			"key", fmt.Sprintf("%x", key),
			"error", err,
		)
		return triple.Triple{}, false
	}
	return t, true
}

// decodePoint decodes a blob returned by a point read.
func decodePoint(backend string, id triple.ID, data []byte) (*triple.Triple, error) {
	t, err := triple.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s get %s: %w", backend, id.Hex(), err)
	}
	return &t, nil
}
