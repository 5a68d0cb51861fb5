// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TanGentleman/keymaster/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for keystroke logs.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS logs (
			seq INTEGER PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			string TEXT NOT NULL,
			source TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS keystrokes (
			log_id TEXT NOT NULL,
			pos INTEGER NOT NULL,
			key TEXT NOT NULL,
			delay REAL,
			PRIMARY KEY (log_id, pos)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_logs_string ON logs(string);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertLog stores a log and its keystrokes. source records where the log
// came from, e.g. "record" or "decode".
func (s *Store) InsertLog(ctx context.Context, log model.Log, source string) error {
	return s.InsertLogs(ctx, []model.Log{log}, source)
}

// InsertLogs stores several logs in one transaction.
func (s *Store) InsertLogs(ctx context.Context, logs []model.Log, source string) (err error) {
	if len(logs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	logStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO logs (id, string, source, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logStmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	keyStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO keystrokes (log_id, pos, key, delay) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := keyStmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	createdAt := s.now().Format(time.RFC3339Nano)
	for _, log := range logs {
		if _, err = logStmt.ExecContext(ctx, log.ID, log.String, source, createdAt); err != nil {
			return fmt.Errorf("insert log %s: %w", log.ID, err)
		}
		for pos, k := range log.Keystrokes {
			var delay sql.NullFloat64
			if k.Time != nil {
				delay = sql.NullFloat64{Float64: *k.Time, Valid: true}
			}
			if _, err = keyStmt.ExecContext(ctx, log.ID, pos, k.Key, delay); err != nil {
				return fmt.Errorf("insert keystroke %d of %s: %w", pos, log.ID, err)
			}
		}
	}
	return tx.Commit()
}

// ListLogs returns every log in insertion order.
func (s *Store) ListLogs(ctx context.Context) ([]model.Log, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT l.id, l.string, k.key, k.delay
		FROM logs l
		LEFT JOIN keystrokes k ON k.log_id = l.id
		ORDER BY l.seq ASC, k.pos ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var logs []model.Log
	for rows.Next() {
		var id, text string
		var key sql.NullString
		var delay sql.NullFloat64
		if err := rows.Scan(&id, &text, &key, &delay); err != nil {
			return nil, err
		}
		if len(logs) == 0 || logs[len(logs)-1].ID != id {
			logs = append(logs, model.Log{ID: id, String: text})
		}
		if !key.Valid {
			continue
		}
		k := model.Keystroke{Key: key.String}
		if delay.Valid {
			k.Time = model.Delay(delay.Float64)
		}
		last := &logs[len(logs)-1]
		last.Keystrokes = append(last.Keystrokes, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// DeleteLogs removes the logs with the given ids and returns how many were removed.
func (s *Store) DeleteLogs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	in := strings.Join(placeholders, ",")
	var removed int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM keystrokes WHERE log_id IN (%s)`, in), args...); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM logs WHERE id IN (%s)`, in), args...)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Reset removes every log.
func (s *Store) Reset(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM keystrokes`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM logs`)
		return err
	})
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			// Best-effort rollback.
			_ = rerr
		}
		return err
	}
	return tx.Commit()
}
