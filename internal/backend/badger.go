package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v2"

	"github.com/roach88/tristore/internal/triple"
)

// Badger stores triples in a pure-Go LSM tree. Transactions provide the
// concurrency control, so no external mutex is held.
type Badger struct {
	db       *badger.DB
	inMemory bool
	logger   *slog.Logger
}

var _ Backend = (*Badger)(nil)

// OpenBadger opens a Badger database in dir. With opts.InMemory set the
// directory is ignored and nothing touches disk.
func OpenBadger(dir string, opts BadgerOptions, logger *slog.Logger) (*Badger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" && !opts.InMemory {
		return nil, fmt.Errorf("open badger: path is required")
	}

	bopts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithSyncWrites(opts.SyncWrites)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").
			WithLogger(nil).
			WithInMemory(true)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", dir, err)
	}
	return &Badger{db: db, inMemory: opts.InMemory, logger: logger}, nil
}

func (b *Badger) Name() string { return string(KindBadger) }

func (b *Badger) Put(_ context.Context, id triple.ID, t triple.Triple) error {
	blob := triple.Encode(t)
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(id.Bytes(), blob)
	})
	if err != nil {
		return fmt.Errorf("badger put %s: %w", id.Hex(), err)
	}
	return nil
}

func (b *Badger) Get(_ context.Context, id triple.ID) (*triple.Triple, error) {
	var blob []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(id[:])
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %s: %w", id.Hex(), err)
	}
	return decodePoint(b.Name(), id, blob)
}

func (b *Badger) Delete(_ context.Context, id triple.ID) (bool, error) {
	existed := false
	err := b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(id[:])
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true
		return txn.Delete(id.Bytes())
	})
	if err != nil {
		return false, fmt.Errorf("badger delete %s: %w", id.Hex(), err)
	}
	return existed, nil
}

// All iterates in key order, which is ID order.
func (b *Badger) All(ctx context.Context) ([]triple.Triple, error) {
	var out []triple.Triple
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			blob, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if t, ok := decodeRow(b.logger, b.Name(), item.KeyCopy(nil), blob); ok {
				out = append(out, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger scan: %w", err)
	}
	return out, nil
}

// Count walks the keys without fetching values.
func (b *Badger) Count(ctx context.Context) (int, error) {
	n := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("badger count: %w", err)
	}
	return n, nil
}

// SizeBytes sums the LSM and value-log sizes Badger last measured. The
// figure lags recent writes and is zero for in-memory databases.
func (b *Badger) SizeBytes(_ context.Context) (int64, error) {
	lsm, vlog := b.db.Size()
	return lsm + vlog, nil
}

func (b *Badger) Flush(_ context.Context) error {
	if b.inMemory {
		return nil
	}
	if err := b.db.Sync(); err != nil {
		return fmt.Errorf("badger flush: %w", err)
	}
	return nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// putRaw stores an arbitrary blob. Tests use it to plant corrupt rows.
func (b *Badger) putRaw(id triple.ID, blob []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(id.Bytes(), blob)
	})
}
