package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"ai-stock-analyst/internal/logger"
	"ai-stock-analyst/internal/types"
)

// SQLiteRecorder persists analyses to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Recorder = (*SQLiteRecorder)(nil)

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info(context.Background(), "SQLite history opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_history (
			id             TEXT PRIMARY KEY,
			symbol         TEXT NOT NULL,
			timestamp      INTEGER NOT NULL,
			decision       TEXT NOT NULL,
			confidence     INTEGER,
			current_price  REAL,
			expected_price REAL,
			reason         TEXT,
			language       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_symbol_ts ON analysis_history(symbol, timestamp)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) Record(ctx context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO analysis_history
		(id, symbol, timestamp, decision, confidence, current_price, expected_price, reason, language)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.Symbol, rec.Timestamp.UnixMilli(), string(rec.Decision), rec.Confidence,
		rec.CurrentPrice, rec.ExpectedPrice, rec.Reason, rec.Language,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) Recent(ctx context.Context, symbol string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT id, symbol, timestamp, decision, confidence, current_price, expected_price, reason, language
		FROM analysis_history`
	args := []any{}
	if symbol != "" {
		q += ` WHERE symbol = ?`
		args = append(args, strings.ToUpper(symbol))
	}
	q += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec      Record
			ts       int64
			decision string
		)
		if err := rows.Scan(&rec.ID, &rec.Symbol, &ts, &decision, &rec.Confidence,
			&rec.CurrentPrice, &rec.ExpectedPrice, &rec.Reason, &rec.Language); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts).UTC()
		rec.Decision = types.Decision(decision)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	logger.Info(context.Background(), "Closing SQLite history")
	return r.db.Close()
}
