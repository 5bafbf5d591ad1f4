//go:build rocksdb

package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/tecbot/gorocksdb"

	"github.com/roach88/tristore/internal/triple"
)

const rocksDBAvailable = true

// RocksDB stores triples in an LZ4-compressed LSM tree. RocksDB handles its
// own concurrency, so no external mutex is held.
//
// There is no persisted record counter: Count iterates every key. That O(n)
// cost is accepted in exchange for not maintaining a counter that could
// drift from the data after a crash.
type RocksDB struct {
	db     *gorocksdb.DB
	opts   *gorocksdb.Options
	ro     *gorocksdb.ReadOptions
	wo     *gorocksdb.WriteOptions
	logger *slog.Logger
}

var _ Backend = (*RocksDB)(nil)

// OpenRocksDB creates or opens a RocksDB database in dir.
func OpenRocksDB(dir string, logger *slog.Logger) (Backend, error) {
	if dir == "" {
		return nil, fmt.Errorf("open rocksdb: path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)
	opts.SetCompression(gorocksdb.LZ4Compression)

	db, err := gorocksdb.OpenDb(opts, dir)
	if err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("open rocksdb %s: %w", dir, err)
	}

	return &RocksDB{
		db:     db,
		opts:   opts,
		ro:     gorocksdb.NewDefaultReadOptions(),
		wo:     gorocksdb.NewDefaultWriteOptions(),
		logger: logger,
	}, nil
}

func (r *RocksDB) Name() string { return string(KindRocksDB) }

func (r *RocksDB) Put(_ context.Context, id triple.ID, t triple.Triple) error {
	if err := r.db.Put(r.wo, id[:], triple.Encode(t)); err != nil {
		return fmt.Errorf("rocksdb put %s: %w", id.Hex(), err)
	}
	return nil
}

func (r *RocksDB) Get(_ context.Context, id triple.ID) (*triple.Triple, error) {
	slice, err := r.db.Get(r.ro, id[:])
	if err != nil {
		return nil, fmt.Errorf("rocksdb get %s: %w", id.Hex(), err)
	}
	defer slice.Free()
	if !slice.Exists() {
		return nil, nil
	}
	return decodePoint(r.Name(), id, slice.Data())
}

func (r *RocksDB) Delete(_ context.Context, id triple.ID) (bool, error) {
	slice, err := r.db.Get(r.ro, id[:])
	if err != nil {
		return false, fmt.Errorf("rocksdb delete %s: %w", id.Hex(), err)
	}
	existed := slice.Exists()
	slice.Free()
	if !existed {
		return false, nil
	}
	if err := r.db.Delete(r.wo, id[:]); err != nil {
		return false, fmt.Errorf("rocksdb delete %s: %w", id.Hex(), err)
	}
	return true, nil
}

func (r *RocksDB) All(ctx context.Context) ([]triple.Triple, error) {
	it := r.db.NewIterator(r.ro)
	defer it.Close()

	var out []triple.Triple
	for it.SeekToFirst(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("rocksdb scan: %w", err)
		}
		key := it.Key()
		value := it.Value()
		t, ok := decodeRow(r.logger, r.Name(), key.Data(), value.Data())
		key.Free()
		value.Free()
		if ok {
			out = append(out, t)
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("rocksdb scan: %w", err)
	}
	return out, nil
}

func (r *RocksDB) Count(ctx context.Context) (int, error) {
	it := r.db.NewIterator(r.ro)
	defer it.Close()

	n := 0
	for it.SeekToFirst(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("rocksdb count: %w", err)
		}
		n++
	}
	if err := it.Err(); err != nil {
		return 0, fmt.Errorf("rocksdb count: %w", err)
	}
	return n, nil
}

// SizeBytes reports the total SST file size. Data still in the memtable is
// not counted.
func (r *RocksDB) SizeBytes(_ context.Context) (int64, error) {
	prop := r.db.GetProperty("rocksdb.total-sst-files-size")
	if prop == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(prop, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("rocksdb size: parse %q: %w", prop, err)
	}
	return n, nil
}

func (r *RocksDB) Flush(_ context.Context) error {
	fo := gorocksdb.NewDefaultFlushOptions()
	defer fo.Destroy()
	if err := r.db.Flush(fo); err != nil {
		return fmt.Errorf("rocksdb flush: %w", err)
	}
	return nil
}

func (r *RocksDB) Close() error {
	r.db.Close()
	r.ro.Destroy()
	r.wo.Destroy()
	r.opts.Destroy()
	return nil
}

// putRaw stores an arbitrary blob. Tests use it to plant corrupt rows.
func (r *RocksDB) putRaw(id triple.ID, blob []byte) error {
	return r.db.Put(r.wo, id[:], blob)
}
