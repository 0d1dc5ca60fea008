// Package relay implements the real-time room synchronization core:
// room membership, whole-snapshot fan-out with echo suppression, and
// room-scoped chat. Canvas content is never stored here; every
// canvas_update carries a full scene replacement and the most recently
// delivered snapshot wins on each receiving client.
package relay

// Connection is a connected participant channel. Implementations must
// make Send safe for concurrent use and non-blocking.
type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// MessageHandler processes one inbound wire message from a connection.
type MessageHandler interface {
	Handle(conn Connection, data []byte)
}
