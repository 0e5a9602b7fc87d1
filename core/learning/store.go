// Package learning persists operator-approved question/answer examples
// in SQLite and retrieves the ones similar to a new guest message.
package learning

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Example is one stored question/answer pair.
type Example struct {
	ID        string
	Intent    string
	Question  string
	Answer    string
	CreatedAt time.Time
}

// Store is the append-only SQLite learning store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the store at path and migrates the schema.
// Legacy tables with guest_message/ai_suggestion columns are upgraded
// in place.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create learning db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open learning db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{db: db, logger: logger.With("component", "learning")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate learning schema: %w", err)
	}
	return s, nil
}

// migrate ensures the learning_examples table exists in its current
// shape. SQLite forbids placeholders in DDL, so statements are fixed
// strings. Old databases are column-migrated rather than rebuilt, and
// legacy rows are backfilled into the new columns once.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS learning_examples (
			id TEXT PRIMARY KEY,
			intent TEXT,
			question TEXT,
			answer TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return err
	}

	cols, err := s.columns()
	if err != nil {
		return err
	}
	for _, add := range []struct{ name, ddl string }{
		{"intent", "ALTER TABLE learning_examples ADD COLUMN intent TEXT"},
		{"question", "ALTER TABLE learning_examples ADD COLUMN question TEXT"},
		{"answer", "ALTER TABLE learning_examples ADD COLUMN answer TEXT"},
		{"created_at", "ALTER TABLE learning_examples ADD COLUMN created_at TEXT DEFAULT CURRENT_TIMESTAMP"},
	} {
		if !cols[add.name] {
			if _, err := s.db.Exec(add.ddl); err != nil {
				return err
			}
		}
	}

	if cols["guest_message"] && cols["ai_suggestion"] {
		if _, err := s.db.Exec(`
			UPDATE learning_examples
			SET question = COALESCE(NULLIF(question, ''), guest_message),
			    answer   = COALESCE(NULLIF(answer, ''), ai_suggestion)
			WHERE (question IS NULL OR question = '')
			   OR (answer   IS NULL OR answer   = '')`); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) columns() (map[string]bool, error) {
	rows, err := s.db.Query("PRAGMA table_info(learning_examples)")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// Append stores an approved example. IDs are assigned here; callers
// never supply them.
func (s *Store) Append(ctx context.Context, intent, question, answer string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO learning_examples (id, intent, question, answer, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, intent, question, answer, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("append learning example: %w", err)
	}
	return id, nil
}

// FindSimilar returns up to limit examples whose question or answer
// contains the query as a case-insensitive substring, newest first. The
// query is truncated to 200 characters before matching. Lookup failures
// degrade to an empty slice with a warn log; a missing example must
// never block a reply.
func (s *Store) FindSimilar(ctx context.Context, query string, limit int) []Example {
	if limit <= 0 {
		limit = 3
	}
	if len(query) > 200 {
		query = query[:200]
	}
	pattern := "%" + query + "%"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id,
		        COALESCE(intent, '')   AS intent,
		        COALESCE(question, '') AS question,
		        COALESCE(answer, '')   AS answer,
		        COALESCE(created_at, '') AS created_at
		 FROM learning_examples
		 WHERE question LIKE ? COLLATE NOCASE OR answer LIKE ? COLLATE NOCASE
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		pattern, pattern, limit)
	if err != nil {
		s.logger.Warn("learning lookup failed", "error", err)
		return nil
	}
	defer rows.Close()

	var out []Example
	for rows.Next() {
		var ex Example
		var created string
		if err := rows.Scan(&ex.ID, &ex.Intent, &ex.Question, &ex.Answer, &created); err != nil {
			s.logger.Warn("learning row scan failed", "error", err)
			return out
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			ex.CreatedAt = t
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("learning lookup failed", "error", err)
	}
	return out
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
