package store

import (
	"context"

	"github.com/HIMANSHU6001/whiteboard/internal/models"
)

// DataStore defines the interface for persistent storage of users and
// whiteboard session records. Both PostgresStore and SQLiteStore
// implement this interface. Lookups return (nil, nil) when the record
// does not exist.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, id, name, email string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)

	// Whiteboard session operations
	CreateWhiteboard(ctx context.Context, id, title, ownerEmail string) (*models.Whiteboard, error)
	GetWhiteboard(ctx context.Context, id string) (*models.Whiteboard, error)
	DeleteWhiteboard(ctx context.Context, id string) error
	AddMember(ctx context.Context, whiteboardID, email string) error
	RemoveMember(ctx context.Context, whiteboardID, email string) error
	CountWhiteboards(ctx context.Context) (int64, error)
}
