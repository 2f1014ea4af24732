package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Nullvora/mabor-bench/internal/model"

	_ "modernc.org/sqlite"
)

const createReportsTable = `
CREATE TABLE IF NOT EXISTS reports (
    id          TEXT PRIMARY KEY,
    created_at  DATETIME NOT NULL,
    units       INTEGER NOT NULL,
    success     INTEGER NOT NULL,
    failed      INTEGER NOT NULL,
    skipped     INTEGER NOT NULL,
    shared      INTEGER NOT NULL DEFAULT 0,
    uploaded_at DATETIME,
    payload     BLOB NOT NULL
)`

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(createReportsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create reports table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveReport inserts a finished report. The full report is stored as a JSON
// payload alongside denormalized status counts for cheap listing.
func (s *SQLiteStore) SaveReport(ctx context.Context, r *model.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	counts := r.CountByStatus()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, created_at, units, success, failed, skipped, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt, len(r.Measurements),
		counts[model.StatusSuccess], counts[model.StatusFailed], counts[model.StatusSkipped],
		payload,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetReport retrieves a report by ID.
func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM reports WHERE id = ?", id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}

	var r model.Report
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

// ListReports returns a paginated list of report metadata ordered by
// created_at DESC, along with the total count.
func (s *SQLiteStore) ListReports(ctx context.Context, limit, offset int) ([]ReportMeta, int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, created_at, units, success, failed, skipped, shared, uploaded_at
		FROM reports ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var metas []ReportMeta
	for rows.Next() {
		var m ReportMeta
		if err := rows.Scan(
			&m.ID, &m.CreatedAt, &m.Units, &m.Success, &m.Failed, &m.Skipped,
			&m.Shared, &m.UploadedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan report: %w", err)
		}
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reports: %w", err)
	}

	return metas, total, nil
}

// MarkShared records a successful upload of the report.
func (s *SQLiteStore) MarkShared(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE reports SET shared = 1, uploaded_at = ? WHERE id = ?",
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark shared: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetStats aggregates counts across all stored reports.
func (s *SQLiteStore) GetStats(ctx context.Context) (*ReportStats, error) {
	stats := &ReportStats{UnitsByStatus: make(map[string]int)}

	var success, failed, skipped sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(shared), 0),
			SUM(success), SUM(failed), SUM(skipped)
		FROM reports`,
	).Scan(&stats.Total, &stats.Shared, &success, &failed, &skipped)
	if err != nil {
		return nil, fmt.Errorf("report stats: %w", err)
	}

	stats.UnitsByStatus[model.StatusSuccess] = int(success.Int64)
	stats.UnitsByStatus[model.StatusFailed] = int(failed.Int64)
	stats.UnitsByStatus[model.StatusSkipped] = int(skipped.Int64)
	return stats, nil
}
