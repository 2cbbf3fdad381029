// Package store persists normalized and derived records in a
// per-dataset SQLite database and answers read-only queries against
// it. The schema is managed with embedded goose migrations.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/leapstack-labs/csvflow/internal/pipeline"

	// Pure-Go sqlite driver.
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a single dataset's SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the dataset database at path and
// runs pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenReadOnly opens an existing dataset database without running
// migrations or allowing writes.
func OpenReadOnly(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying connection for schema introspection.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) migrate() error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("run migrations on %s: %w", s.path, err)
	}
	return nil
}

// ReplaceNormalized replaces the dataset's full normalized record set.
// The transform always re-emits the whole dataset, so the previous
// contents are dropped rather than merged; duplicate keys within the
// batch resolve last-wins via upsert.
func (s *Store) ReplaceNormalized(ctx context.Context, records []pipeline.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM factory_data`); err != nil {
		return fmt.Errorf("clear factory_data: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO factory_data (factory, year, month, cumulative_value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (factory, year, month)
		DO UPDATE SET cumulative_value = excluded.cumulative_value`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.Factory, nullInt(rec.Year), rec.Month, nullFloat(rec.CumulativeValue)); err != nil {
			return fmt.Errorf("upsert record (%s, %v, %d): %w", rec.Factory, rec.Year, rec.Month, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load transaction: %w", err)
	}
	return nil
}

// MaterializeDerived rebuilds the monthly_values table from the given
// derived set. The table is fully derived and never updated in place.
func (s *Store) MaterializeDerived(ctx context.Context, derived []pipeline.DerivedRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin derive transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM monthly_values`); err != nil {
		return fmt.Errorf("clear monthly_values: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO monthly_values (factory, year, month, cumulative_value, monthly_value)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare derived insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range derived {
		if _, err := stmt.ExecContext(ctx,
			rec.Factory, nullInt(rec.Year), rec.Month,
			nullFloat(rec.CumulativeValue), nullFloat(rec.MonthlyValue)); err != nil {
			return fmt.Errorf("insert derived record (%s, %v, %d): %w", rec.Factory, rec.Year, rec.Month, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit derive transaction: %w", err)
	}
	return nil
}

// Stats summarizes the loaded dataset.
type Stats struct {
	Records   int `json:"records"`
	Factories int `json:"factories"`
}

// Stats counts loaded records and distinct factories.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM factory_data`).Scan(&st.Records); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT factory) FROM factory_data`).Scan(&st.Factories); err != nil {
		return nil, fmt.Errorf("count factories: %w", err)
	}
	return &st, nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
