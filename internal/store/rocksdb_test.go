//go:build rocksdb

package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tristore/internal/backend"
)

func init() {
	backendFactories = append(backendFactories, backendFactory{"rocksdb", func(t *testing.T) backend.Backend {
		b, err := backend.OpenRocksDB(t.TempDir(), discardLogger())
		require.NoError(t, err)
		return b
	}})
}
