package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/HIMANSHU6001/whiteboard/internal/models"
)

// SQLiteStore handles SQLite database operations. It is the default
// store for development.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/whiteboard.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/whiteboard.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT DEFAULT '',
		email TEXT UNIQUE NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS whiteboards (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		owner_email TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS whiteboard_members (
		whiteboard_id TEXT NOT NULL REFERENCES whiteboards(id) ON DELETE CASCADE,
		email TEXT NOT NULL,
		joined_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (whiteboard_id, email)
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	CREATE INDEX IF NOT EXISTS idx_whiteboards_owner ON whiteboards(owner_email);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateUser creates a new user record.
func (s *SQLiteStore) CreateUser(ctx context.Context, id, name, email string) (*models.User, error) {
	now := time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, created_at)
		VALUES (?, ?, ?, ?)
	`, id, name, email, now)
	if err != nil {
		return nil, err
	}

	return s.GetUserByEmail(ctx, email)
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, created_at
		FROM users WHERE email = ?
	`, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// CountUsers returns the total number of registered users.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CreateWhiteboard creates a new whiteboard session record. The owner
// is also recorded as a member.
func (s *SQLiteStore) CreateWhiteboard(ctx context.Context, id, title, ownerEmail string) (*models.Whiteboard, error) {
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO whiteboards (id, title, owner_email, created_at)
		VALUES (?, ?, ?, ?)
	`, id, title, ownerEmail, now)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO whiteboard_members (whiteboard_id, email)
		VALUES (?, ?)
	`, id, ownerEmail)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.GetWhiteboard(ctx, id)
}

// GetWhiteboard retrieves a whiteboard with its member list.
func (s *SQLiteStore) GetWhiteboard(ctx context.Context, id string) (*models.Whiteboard, error) {
	wb := &models.Whiteboard{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, owner_email, created_at
		FROM whiteboards WHERE id = ?
	`, id).Scan(
		&wb.ID,
		&wb.Title,
		&wb.OwnerEmail,
		&wb.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT email FROM whiteboard_members
		WHERE whiteboard_id = ? ORDER BY joined_at
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		wb.Members = append(wb.Members, email)
	}

	return wb, rows.Err()
}

// DeleteWhiteboard deletes a whiteboard; members are removed by cascade.
func (s *SQLiteStore) DeleteWhiteboard(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM whiteboards WHERE id = ?`, id)
	return err
}

// AddMember adds a user to a whiteboard's member list. Idempotent.
func (s *SQLiteStore) AddMember(ctx context.Context, whiteboardID, email string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO whiteboard_members (whiteboard_id, email)
		VALUES (?, ?)
	`, whiteboardID, email)
	return err
}

// RemoveMember removes a user from a whiteboard's member list. Idempotent.
func (s *SQLiteStore) RemoveMember(ctx context.Context, whiteboardID, email string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM whiteboard_members
		WHERE whiteboard_id = ? AND email = ?
	`, whiteboardID, email)
	return err
}

// CountWhiteboards returns the total number of whiteboard sessions.
func (s *SQLiteStore) CountWhiteboards(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM whiteboards`).Scan(&count)
	return count, err
}
