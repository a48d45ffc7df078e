package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// SQLiteSheet stores a worksheet in SQLite: the header as one row per
// column position and every data row as a JSON array of cells.
type SQLiteSheet struct {
	db        *sql.DB
	worksheet string
}

const sheetSchema = `
CREATE TABLE IF NOT EXISTS sheet_header (
	worksheet TEXT NOT NULL,
	pos INTEGER NOT NULL,
	name TEXT NOT NULL,
	PRIMARY KEY (worksheet, pos)
);
CREATE TABLE IF NOT EXISTS sheet_rows (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	worksheet TEXT NOT NULL,
	cells TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sheet_rows_worksheet ON sheet_rows(worksheet, id);
`

// OpenSQLite opens (or creates) the database at path using driver
// "sqlite3" (mattn, cgo) or "sqlite" (modernc, pure Go).
func OpenSQLite(driver, path, worksheet string) (*SQLiteSheet, error) {
	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sheetSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteSheet{db: db, worksheet: worksheet}, nil
}

// Close closes the database connection
func (s *SQLiteSheet) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Header returns the header row in column order
func (s *SQLiteSheet) Header(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sheet_header WHERE worksheet = ? ORDER BY pos ASC`, s.worksheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var header []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		header = append(header, name)
	}
	return header, rows.Err()
}

// Values returns the header followed by every row in insertion order
func (s *SQLiteSheet) Values(ctx context.Context) ([][]string, error) {
	header, err := s.Header(ctx)
	if err != nil {
		return nil, err
	}
	if len(header) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cells FROM sheet_rows WHERE worksheet = ? ORDER BY id ASC`, s.worksheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := [][]string{header}
	for rows.Next() {
		var cellsJSON string
		if err := rows.Scan(&cellsJSON); err != nil {
			return nil, err
		}
		var cells []string
		if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
			return nil, fmt.Errorf("corrupt row: %w", err)
		}
		values = append(values, cells)
	}
	return values, rows.Err()
}

// WriteHeader replaces the header row
func (s *SQLiteSheet) WriteHeader(ctx context.Context, header []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_header WHERE worksheet = ?`, s.worksheet); err != nil {
		return err
	}
	for pos, name := range header {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sheet_header (worksheet, pos, name) VALUES (?, ?, ?)`,
			s.worksheet, pos, name); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AppendRow stores a data row
func (s *SQLiteSheet) AppendRow(ctx context.Context, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sheet_rows (worksheet, cells, created_at) VALUES (?, ?, ?)`,
		s.worksheet, string(cells), time.Now().UTC())
	return err
}
