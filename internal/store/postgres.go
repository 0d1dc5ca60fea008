package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HIMANSHU6001/whiteboard/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}

	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT UNIQUE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS whiteboards (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		owner_email TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS whiteboard_members (
		whiteboard_id TEXT NOT NULL REFERENCES whiteboards(id) ON DELETE CASCADE,
		email TEXT NOT NULL,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (whiteboard_id, email)
	);

	CREATE INDEX IF NOT EXISTS idx_whiteboards_owner ON whiteboards(owner_email);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateUser creates a new user record.
func (s *PostgresStore) CreateUser(ctx context.Context, id, name, email string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, created_at
	`, id, name, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at
		FROM users WHERE email = $1
	`, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// CountUsers returns the total number of registered users.
func (s *PostgresStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CreateWhiteboard creates a new whiteboard session record. The owner
// is also recorded as a member.
func (s *PostgresStore) CreateWhiteboard(ctx context.Context, id, title, ownerEmail string) (*models.Whiteboard, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO whiteboards (id, title, owner_email)
		VALUES ($1, $2, $3)
	`, id, title, ownerEmail)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO whiteboard_members (whiteboard_id, email)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, id, ownerEmail)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return s.GetWhiteboard(ctx, id)
}

// GetWhiteboard retrieves a whiteboard with its member list.
func (s *PostgresStore) GetWhiteboard(ctx context.Context, id string) (*models.Whiteboard, error) {
	wb := &models.Whiteboard{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, owner_email, created_at
		FROM whiteboards WHERE id = $1
	`, id).Scan(
		&wb.ID,
		&wb.Title,
		&wb.OwnerEmail,
		&wb.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT email FROM whiteboard_members
		WHERE whiteboard_id = $1 ORDER BY joined_at
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
func (s *PostgresStore) DeleteWhiteboard(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM whiteboards WHERE id = $1`, id)
	return err
}

// AddMember adds a user to a whiteboard's member list. Idempotent.
func (s *PostgresStore) AddMember(ctx context.Context, whiteboardID, email string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO whiteboard_members (whiteboard_id, email)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, whiteboardID, email)
	return err
}

// RemoveMember removes a user from a whiteboard's member list. Idempotent.
func (s *PostgresStore) RemoveMember(ctx context.Context, whiteboardID, email string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM whiteboard_members
		WHERE whiteboard_id = $1 AND email = $2
	`, whiteboardID, email)
	return err
}

// CountWhiteboards returns the total number of whiteboard sessions.
func (s *PostgresStore) CountWhiteboards(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM whiteboards`).Scan(&count)
	return count, err
}
