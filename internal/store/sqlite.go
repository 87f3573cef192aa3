// ABOUTME: SQLite implementation of the Store interface
// ABOUTME: Pure-Go modernc driver by default, cgo mattn driver selectable by name

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names registered with database/sql.
const (
	DriverModernc = "sqlite"  // modernc.org/sqlite, no cgo
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3, needs cgo
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a store at path with the default driver.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return Open(DriverModernc, path)
}

// Open creates a store at path using the named database/sql driver.
// The schema is created if it doesn't exist and parent directories are
// created if needed.
func Open(driver, path string) (*SQLiteStore, error) {
	if driver != DriverModernc && driver != DriverMattn {
		return nil, fmt.Errorf("unsupported sqlite driver %q", driver)
	}
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path, "driver", driver)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			thread_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			turns TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_conversations_user_thread
			ON conversations(user_id, thread_id);

		CREATE INDEX IF NOT EXISTS idx_conversations_user_created
			ON conversations(user_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// runMigrations applies schema migrations for existing databases.
// These are idempotent - safe to run multiple times.
func (s *SQLiteStore) runMigrations() error {
	migrations := []struct {
		check  string
		apply  string
		column string
	}{
		{
			check:  `SELECT 1 FROM pragma_table_info('conversations') WHERE name = 'updated_at'`,
			apply:  `ALTER TABLE conversations ADD COLUMN updated_at TEXT`,
			column: "updated_at",
		},
	}

	for _, m := range migrations {
		var exists int
		err := s.db.QueryRow(m.check).Scan(&exists)
		if err == nil {
			continue
		}
		if _, err := s.db.Exec(m.apply); err != nil {
			return fmt.Errorf("adding %s column to conversations: %w", m.column, err)
		}
		s.logger.Info("applied migration", "column", m.column, "table", "conversations")
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// SaveConversation deletes the user's previous copy of the thread and
// inserts c in its place, in one transaction.
func (s *SQLiteStore) SaveConversation(ctx context.Context, c *Conversation) error {
	title, err := titleOf(c.Turns)
	if err != nil {
		return err
	}

	turns, err := json.Marshal(c.Turns)
	if err != nil {
		return fmt.Errorf("encoding turns: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM conversations WHERE user_id = ? AND thread_id = ?`,
		c.UserID, c.ThreadID,
	); err != nil {
		return fmt.Errorf("deleting previous conversation: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	stamp := now.Format(time.RFC3339)
	result, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (thread_id, user_id, title, turns, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ThreadID, c.UserID, title, string(turns), stamp, stamp)
	if err != nil {
		return fmt.Errorf("inserting conversation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting conversation id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing conversation: %w", err)
	}

	c.ID = id
	c.Title = title
	c.CreatedAt = now

	s.logger.Debug("saved conversation", "id", id, "thread_id", c.ThreadID, "turns", len(c.Turns))
	return nil
}

// LoadConversation retrieves a conversation by ID.
// Returns ErrNotFound if it doesn't exist or belongs to another user.
func (s *SQLiteStore) LoadConversation(ctx context.Context, userID string, id int64) (*Conversation, error) {
	query := `
		SELECT id, thread_id, user_id, title, turns, created_at
		FROM conversations
		WHERE id = ? AND user_id = ?
	`

	var c Conversation
	var turns, createdAtStr string

	err := s.db.QueryRowContext(ctx, query, id, userID).Scan(
		&c.ID,
		&c.ThreadID,
		&c.UserID,
		&c.Title,
		&turns,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}

	if err := json.Unmarshal([]byte(turns), &c.Turns); err != nil {
		return nil, fmt.Errorf("decoding turns: %w", err)
	}

	c.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &c, nil
}

// ListConversations returns the user's conversations, newest first.
func (s *SQLiteStore) ListConversations(ctx context.Context, userID string) ([]Preview, error) {
	query := `
		SELECT id, created_at, title
		FROM conversations
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	previews := []Preview{}
	for rows.Next() {
		var p Preview
		var createdAtStr string

		if err := rows.Scan(&p.ID, &createdAtStr, &p.Title); err != nil {
			return nil, fmt.Errorf("scanning conversation row: %w", err)
		}

		p.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		previews = append(previews, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversation rows: %w", err)
	}

	return previews, nil
}

// DeleteConversation removes a conversation.
// Returns ErrNotFound if nothing was deleted.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, userID string, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted conversation", "id", id)
	return nil
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
