package pedigree

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLStore persists the pedigree in a SQLite database, so ancestry
// survives across runs that resume from snapshots.
type SQLStore struct {
	db *sql.DB
}

// OpenSQL opens or creates the pedigree database at path.
func OpenSQL(path string) (*SQLStore, error) {
	if path == "" {
		return nil, errors.New("pedigree: empty database path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("pedigree: creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("pedigree: opening database: %w", err)
	}
	// modernc sqlite allows one writer; a single connection avoids
	// SQLITE_BUSY churn for this write-light workload.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pedigree: applying pragma: %w", err)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS births (
		id TEXT PRIMARY KEY,
		parent_a TEXT NOT NULL,
		parent_b TEXT NOT NULL,
		generation INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pedigree: creating schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) AddBirth(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return errors.New("pedigree: birth record has no plant ID")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO births (id, parent_a, parent_b, generation)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent_a = excluded.parent_a,
			parent_b = excluded.parent_b,
			generation = excluded.generation
	`, rec.ID, rec.ParentA, rec.ParentB, rec.Generation)
	if err != nil {
		return fmt.Errorf("pedigree: recording birth %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLStore) Parents(ctx context.Context, id string) (Record, bool, error) {
	rec := Record{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT parent_a, parent_b, generation FROM births WHERE id = ?`, id,
	).Scan(&rec.ParentA, &rec.ParentB, &rec.Generation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("pedigree: looking up %s: %w", id, err)
	}
	return rec, true, nil
}

func (s *SQLStore) Records(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parent_a, parent_b, generation FROM births ORDER BY generation, id`)
	if err != nil {
		return nil, fmt.Errorf("pedigree: listing births: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ParentA, &rec.ParentB, &rec.Generation); err != nil {
			return nil, fmt.Errorf("pedigree: scanning birth row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pedigree: reading birth rows: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
