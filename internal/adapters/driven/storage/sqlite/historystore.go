package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/refchat/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore is a SQLite-backed chat history log.
type HistoryStore struct {
	db   *sql.DB
	path string
}

// NewHistoryStore opens the history database in dataDir, creating it if needed.
// If dataDir is empty, defaults to ~/.refchat.
func NewHistoryStore(dataDir string) (*HistoryStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".refchat")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "history.db")

	// WAL lets the MCP server and a CLI session share the log.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &HistoryStore{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *HistoryStore) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *HistoryStore) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_history.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// Append records an entry.
func (s *HistoryStore) Append(ctx context.Context, entry domain.ChatHistoryEntry) error {
	citekeys := entry.Citekeys
	if citekeys == nil {
		citekeys = []domain.Citekey{}
	}
	citekeysJSON, err := json.Marshal(citekeys)
	if err != nil {
		return fmt.Errorf("marshalling citekeys: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_history (id, created_at, question, answer, citekeys)
		VALUES (?, ?, ?, ?, ?)
	`, entry.ID, entry.Timestamp.UnixNano(), entry.Question, entry.Answer, string(citekeysJSON))
	if err != nil {
		return fmt.Errorf("appending history entry: %w", err)
	}
	return nil
}

// List returns entries newest first. A limit of zero returns all entries.
func (s *HistoryStore) List(ctx context.Context, limit int) ([]domain.ChatHistoryEntry, error) {
	query := `SELECT id, created_at, question, answer, citekeys FROM chat_history ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []domain.ChatHistoryEntry
	for rows.Next() {
		var e domain.ChatHistoryEntry
		var createdAt int64
		var citekeysJSON string
		if err := rows.Scan(&e.ID, &createdAt, &e.Question, &e.Answer, &citekeysJSON); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		e.Timestamp = time.Unix(0, createdAt)
		if err := json.Unmarshal([]byte(citekeysJSON), &e.Citekeys); err != nil {
			return nil, fmt.Errorf("decoding citekeys of %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes every entry.
func (s *HistoryStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_history`); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}
