//go:build !rocksdb

package backend

import (
	"fmt"
	"log/slog"
)

const rocksDBAvailable = false

// OpenRocksDB fails in builds without the "rocksdb" tag.
func OpenRocksDB(dir string, _ *slog.Logger) (Backend, error) {
	return nil, fmt.Errorf("open rocksdb %s: %w (rebuild with -tags rocksdb)", dir, ErrUnsupported)
}
