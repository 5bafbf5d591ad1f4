// Package backend provides durable key→triple storage for the graph store.
//
// Every implementation satisfies Backend and is injected into the store at
// construction; the store and the index never know which one is active.
//
//   - Memory: process-local map, no persistence. Default and test backend.
//   - SQLite: single table behind one mutex, WAL journaling (mattn/go-sqlite3).
//   - RocksDB: LSM tree with LZ4 compression (tecbot/gorocksdb). Built only
//     with the "rocksdb" build tag because it needs cgo and librocksdb.
//   - Badger: pure-Go LSM tree (dgraph-io/badger/v2).
//
// Keys are raw triple ID bytes; values are triple.Encode blobs. Full scans
// (All) skip blobs that fail to decode and log them, so one bad record never
// makes a whole backend unreadable. Point reads (Get) return the decode error.
//
// All returns triples ordered by ID on every backend.
package backend
