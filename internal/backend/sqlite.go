package backend

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/tristore/internal/triple"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - triples table keyed by content hash
const currentSchemaVersion = 1

const (
	defaultBusyTimeout = 5 * time.Second
	defaultSynchronous = "NORMAL"
)

// SQLite stores each triple as one row of a single table.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode unless overridden
//   - 5-second busy timeout unless overridden
//
// Every call is serialized behind one mutex; the connection pool is pinned
// to a single connection so ":memory:" databases keep their contents.
type SQLite struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ Backend = (*SQLite)(nil)

// OpenSQLite creates or opens a SQLite database at path. ":memory:" opens a
// private in-memory database. Safe to call repeatedly on the same file.
func OpenSQLite(path string, opts SQLiteOptions, logger *slog.Logger) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite: path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// SQLite only supports one writer at a time, and every connection to
	// ":memory:" is a distinct database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlite %s: %w", path, err)
	}

	if err := applyPragmas(db, opts); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db, path: path, logger: logger}, nil
}

func applyPragmas(db *sql.DB, opts SQLiteOptions) error {
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}
	mode := strings.ToUpper(opts.Synchronous)
	switch mode {
	case "":
		mode = defaultSynchronous
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("invalid synchronous mode %q", opts.Synchronous)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = " + mode,
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return runMigrations(db)
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported %d", version, currentSchemaVersion)
	}

	// Version 1 is the base schema; later steps go here.

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func (s *SQLite) Name() string { return string(KindSQLite) }

func (s *SQLite) Put(ctx context.Context, id triple.ID, t triple.Triple) error {
	blob := triple.Encode(t)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO triples (id, data) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, id[:], blob)
	if err != nil {
		return fmt.Errorf("sqlite put %s: %w", id.Hex(), err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id triple.ID) (*triple.Triple, error) {
	s.mu.Lock()
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM triples WHERE id = ?`, id[:]).Scan(&blob)
	s.mu.Unlock()

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get %s: %w", id.Hex(), err)
	}
	return decodePoint(s.Name(), id, blob)
}

func (s *SQLite) Delete(ctx context.Context, id triple.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM triples WHERE id = ?`, id[:])
	if err != nil {
		return false, fmt.Errorf("sqlite delete %s: %w", id.Hex(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite delete %s: %w", id.Hex(), err)
	}
	return n > 0, nil
}

func (s *SQLite) All(ctx context.Context) ([]triple.Triple, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM triples ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite scan: %w", err)
	}
	defer rows.Close()

	var out []triple.Triple
	for rows.Next() {
		var key, blob []byte
		if err := rows.Scan(&key, &blob); err != nil {
			return nil, fmt.Errorf("sqlite scan row: %w", err)
		}
		if t, ok := decodeRow(s.logger, s.Name(), key, blob); ok {
			out = append(out, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite scan: %w", err)
	}
	return out, nil
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM triples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite count: %w", err)
	}
	return n, nil
}

// SizeBytes reports page_count * page_size, which includes free pages and
// schema overhead.
func (s *SQLite) SizeBytes(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pages, pageSize int64
	if err := s.db.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pages); err != nil {
		return 0, fmt.Errorf("sqlite size: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("sqlite size: %w", err)
	}
	return pages * pageSize, nil
}

// Flush checkpoints the WAL into the main database file and truncates it.
func (s *SQLite) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var busy, logFrames, checkpointed int
	err := s.db.QueryRowContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`).Scan(&busy, &logFrames, &checkpointed)
	if err != nil {
		return fmt.Errorf("sqlite flush: %w", err)
	}
	if busy != 0 {
		s.logger.Warn("wal checkpoint incomplete", "path", s.path, "log_frames", logFrames, "checkpointed", checkpointed)
	}
	return nil
}

// Close is idempotent. Calls after Close fail with the driver's
// closed-database error.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *SQLite) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if !strings.EqualFold(value, expected) {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// putRaw stores an arbitrary blob. Tests use it to plant corrupt rows.
func (s *SQLite) putRaw(id triple.ID, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT OR REPLACE INTO triples (id, data) VALUES (?, ?)`, id[:], blob)
	return err
}
