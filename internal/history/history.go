// Package history records completed analysis runs in a local SQLite file.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/quantflow/quantflow/internal/report"
)

// ErrRunNotFound is returned when a run id has no record.
var ErrRunNotFound = errors.New("history: run not found")

// Entry is one recorded run.
type Entry struct {
	ID             string
	Tickers        []string
	SelectedAgents []string
	StartDate      string
	EndDate        string
	ModelName      string
	ModelProvider  string
	CreatedAt      time.Time
	Output         *report.OutputNodeData
}

// DB is a run-history database.
type DB struct {
	conn *sql.DB
	path string
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id              TEXT PRIMARY KEY,
    tickers         TEXT NOT NULL,
    selected_agents TEXT NOT NULL,
    start_date      TEXT NOT NULL,
    end_date        TEXT NOT NULL,
    model_name      TEXT NOT NULL DEFAULT '',
    model_provider  TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL,
    output          TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Open opens or creates a history database at path, with WAL mode for
// concurrent readers.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: set WAL mode: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &DB{conn: conn, path: path}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Save records a completed run. An empty id gets a generated one; the
// stored id is returned.
func (d *DB) Save(ctx context.Context, e *Entry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var output any
	if e.Output != nil {
		raw, err := json.Marshal(e.Output)
		if err != nil {
			return "", fmt.Errorf("history: encode output: %w", err)
		}
		output = string(raw)
	}

	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO runs (id, tickers, selected_agents, start_date, end_date, model_name, model_provider, created_at, output)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		strings.Join(e.Tickers, ","),
		strings.Join(e.SelectedAgents, ","),
		e.StartDate, e.EndDate,
		e.ModelName, e.ModelProvider,
		e.CreatedAt.Format(time.RFC3339),
		output,
	)
	if err != nil {
		return "", fmt.Errorf("history: insert run: %w", err)
	}
	return e.ID, nil
}

// List returns up to limit runs, newest first. limit <= 0 means all.
func (d *DB) List(ctx context.Context, limit int) ([]Entry, error) {
	q := `SELECT id, tickers, selected_agents, start_date, end_date, model_name, model_provider, created_at, output
		FROM runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: rows: %w", err)
	}
	return entries, nil
}

// Get fetches one run by id.
func (d *DB) Get(ctx context.Context, id string) (*Entry, error) {
	row := d.conn.QueryRowContext(ctx, `
		SELECT id, tickers, selected_agents, start_date, end_date, model_name, model_provider, created_at, output
		FROM runs WHERE id = ?`, id)
	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return e, err
}

func scanEntry(scan func(...any) error) (*Entry, error) {
	var (
		e                        Entry
		tickers, agents, created string
		output                   sql.NullString
	)
	if err := scan(&e.ID, &tickers, &agents, &e.StartDate, &e.EndDate,
		&e.ModelName, &e.ModelProvider, &created, &output); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("history: scan run: %w", err)
	}
	e.Tickers = splitList(tickers)
	e.SelectedAgents = splitList(agents)
	if ts, err := time.Parse(time.RFC3339, created); err == nil {
		e.CreatedAt = ts
	}
	if output.Valid && output.String != "" {
		var data report.OutputNodeData
		if err := json.Unmarshal([]byte(output.String), &data); err != nil {
			return nil, fmt.Errorf("history: decode output: %w", err)
		}
		e.Output = &data
	}
	return &e, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
