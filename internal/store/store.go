// Package store persists actions, editorials, answer keys and the audit
// event log in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by lookups that must find a row.
var ErrNotFound = errors.New("not found")

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store owns the database handle and hands out repositories.
type Store struct {
	db  *sql.DB
	seq *sequenceCounter
}

// Open connects to the SQLite database at path, applies pragmas on every
// pooled connection and runs pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db, seq: &sequenceCounter{db: db}}, nil
}

// dsn builds a modernc DSN. Pragmas go in the DSN so that every connection
// in the pool gets them, not just the first.
func dsn(path string) string {
	pragmas := []string{
		"journal_mode(WAL)",
		"busy_timeout(5000)",
		"foreign_keys(1)",
		"synchronous(NORMAL)",
	}
	var b strings.Builder
	b.WriteString("file:")
	b.WriteString(path)
	for i, p := range pragmas {
		if i == 0 {
			b.WriteString("?")
		} else {
			b.WriteString("&")
		}
		b.WriteString("_pragma=")
		b.WriteString(p)
	}
	return b.String()
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Actions returns the action repository.
func (s *Store) Actions() *ActionRepo { return &ActionRepo{db: s.db} }

// Editorials returns the editorial repository.
func (s *Store) Editorials() *EditorialRepo { return &EditorialRepo{db: s.db} }

// QA returns the quiz session repository.
func (s *Store) QA() *QARepo { return &QARepo{db: s.db} }

// EventRepo returns the append-only event log.
func (s *Store) EventRepo() EventRepo { return &eventRepo{db: s.db, seq: s.seq} }

func migrate(db *sql.DB) error {
	files, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	for _, f := range files {
		var seen int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, f.Name()).Scan(&seen); err != nil {
			return fmt.Errorf("check %s: %w", f.Name(), err)
		}
		if seen > 0 {
			continue
		}
		body, err := migrationsFS.ReadFile("migrations/" + f.Name())
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(body)); err != nil {
			return fmt.Errorf("apply %s: %w", f.Name(), err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name) VALUES (?)`, f.Name()); err != nil {
			return fmt.Errorf("record %s: %w", f.Name(), err)
		}
	}
	return tx.Commit()
}

// DefaultDBPath resolves the database file path in priority order:
// 1. READGATE_DB environment variable
// 2. $XDG_DATA_HOME/readgate/readgate.db
// 3. ~/.local/share/readgate/readgate.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("READGATE_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "readgate", "readgate.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// sequenceCounter hands out the global sequence shared by every event
// table, so LLM calls and gate outcomes can be ordered against each other.
// The RETURNING clause makes the increment atomic at the database level.
type sequenceCounter struct {
	db *sql.DB
}

// Next atomically returns the next sequence number and increments the
// counter inside tx, so the number is only consumed if tx commits.
func (sc *sequenceCounter) Next(ctx context.Context, tx *sql.Tx) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}
