// Package sqlite stores audit records durably in a SQLite database. Each row
// keeps the record's binary encoding next to a few queryable columns.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lox/blackjack/internal/audit"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Store is a SQLite-backed audit sink.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Append persists one finished round.
func (s *Store) Append(ctx context.Context, tableID, roundID string, rec audit.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(tableID) == "" {
		return fmt.Errorf("table id is required")
	}
	if strings.TrimSpace(roundID) == "" {
		return fmt.Errorf("round id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO audit_records (
	table_id,
	round_id,
	start_ms,
	end_ms,
	result,
	bet,
	payout,
	doubled,
	split,
	dealer_score,
	payload
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		tableID,
		roundID,
		rec.StartMillis,
		rec.EndMillis,
		int(rec.Result),
		rec.Bet,
		rec.Payout,
		rec.DoubledDown,
		rec.Split,
		rec.DealerScore,
		audit.MarshalRecord(rec),
	)
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// Count returns the number of rounds stored for a table.
func (s *Store) Count(ctx context.Context, tableID string) (int, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_records WHERE table_id = ?`, tableID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count audit records: %w", err)
	}
	return n, nil
}

// Page returns one page of a table's rounds, newest first, with the same
// clamping as audit.Paginate.
func (s *Store) Page(ctx context.Context, tableID string, page, size int) (audit.PageResponse, error) {
	page = max(page, 0)
	size = audit.ClampPageSize(size)

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return audit.PageResponse{}, fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_records WHERE table_id = ?`, tableID).Scan(&total); err != nil {
		return audit.PageResponse{}, fmt.Errorf("count audit records: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
SELECT payload
FROM audit_records
WHERE table_id = ?
ORDER BY id DESC
LIMIT ? OFFSET ?
`, tableID, size, page*size)
	if err != nil {
		return audit.PageResponse{}, fmt.Errorf("page audit records: %w", err)
	}
	records, err := scanRecords(rows)
	if err != nil {
		return audit.PageResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return audit.PageResponse{}, fmt.Errorf("commit page read: %w", err)
	}

	return audit.PageResponse{
		PositionID: tableID,
		Page:       page,
		PageSize:   size,
		Total:      total,
		Records:    records,
	}, nil
}

// Load returns every stored round of a table, oldest first.
func (s *Store) Load(ctx context.Context, tableID string) ([]audit.Record, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT payload
FROM audit_records
WHERE table_id = ?
ORDER BY id ASC
`, tableID)
	if err != nil {
		return nil, fmt.Errorf("load audit records: %w", err)
	}
	return scanRecords(rows)
}

// Tables lists the table ids that have stored rounds.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT DISTINCT table_id FROM audit_records ORDER BY table_id`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan table id: %w", err)
		}
		tables = append(tables, id)
	}
	return tables, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]audit.Record, error) {
	defer rows.Close()

	records := []audit.Record{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec, err := audit.UnmarshalRecord(payload)
		if err != nil {
			return nil, fmt.Errorf("decode audit record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}
	return records, nil
}
