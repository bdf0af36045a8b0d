package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/tebiki/internal/models"
)

// SQLiteStorage implements RecordStore using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		manual TEXT NOT NULL,
		path TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		text TEXT NOT NULL,
		PRIMARY KEY (manual, path, chunk_index)
	);

	CREATE INDEX IF NOT EXISTS idx_records_manual ON records(manual);

	CREATE TABLE IF NOT EXISTS record_sets (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		record_count INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveRecords replaces all stored records in one transaction.
func (s *SQLiteStorage) SaveRecords(ctx context.Context, records []models.ChunkRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (manual, path, chunk_index, text) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Manual, r.Path, r.ChunkIndex, r.Text); err != nil {
			return fmt.Errorf("insert record %s: %w", r.Key(), err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO record_sets (id, record_count, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET record_count = excluded.record_count, updated_at = excluded.updated_at`,
		len(records), time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("record set metadata: %w", err)
	}
	return tx.Commit()
}

// ListRecords returns records ordered by manual, path, and chunk index.
func (s *SQLiteStorage) ListRecords(ctx context.Context, manual string) ([]models.ChunkRecord, error) {
	query := `SELECT manual, path, chunk_index, text FROM records`
	var args []any
	if manual != "" {
		query += ` WHERE manual = ?`
		args = append(args, manual)
	}
	query += ` ORDER BY manual, path, chunk_index`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ChunkRecord
	for rows.Next() {
		var r models.ChunkRecord
		if err := rows.Scan(&r.Manual, &r.Path, &r.ChunkIndex, &r.Text); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ListManuals returns per-manual page and record counts ordered by manual.
func (s *SQLiteStorage) ListManuals(ctx context.Context) ([]ManualStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT manual, COUNT(DISTINCT path), COUNT(*) FROM records GROUP BY manual ORDER BY manual`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var manuals []ManualStats
	for rows.Next() {
		var m ManualStats
		if err := rows.Scan(&m.Manual, &m.Pages, &m.Records); err != nil {
			return nil, err
		}
		manuals = append(manuals, m)
	}
	return manuals, rows.Err()
}

// CountRecords returns the total number of records.
func (s *SQLiteStorage) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count)
	return count, err
}

// UpdatedAt returns the time of the last SaveRecords.
func (s *SQLiteStorage) UpdatedAt(ctx context.Context) (time.Time, error) {
	var updated time.Time
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM record_sets WHERE id = 1`).Scan(&updated)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	return updated, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
