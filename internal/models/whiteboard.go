package models

import "time"

// Whiteboard represents a collaborative session record. The ID is the
// client-generated short token ("ABCDE-kx1a2b" style), opaque to the
// server beyond format validation. Canvas content is never stored here;
// it lives only in the participants' local scenes.
type Whiteboard struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	OwnerEmail string    `json:"owner_email"`
	CreatedAt  time.Time `json:"created_at"`
	Members    []string  `json:"members,omitempty"`
}
