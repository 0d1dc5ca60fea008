package models

import "time"

// User represents a registered collaborator. The ID is the subject
// claim issued by the identity provider, not generated locally.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
