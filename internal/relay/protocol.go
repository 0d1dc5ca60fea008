package relay

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/HIMANSHU6001/whiteboard/internal/metrics"
	"github.com/HIMANSHU6001/whiteboard/internal/roomid"
)

// Wire message types. The set is closed: anything else is dropped on
// receipt. TypeMessageReceive keeps the protocol's historical spelling;
// deployed clients depend on it.
const (
	TypeJoinSession    = "join_session"
	TypeJoinedSession  = "joined_session"
	TypeCanvasUpdate   = "canvas_update"
	TypeCanvasUpdated  = "canvas_updated"
	TypeMessageSend    = "message_send"
	TypeMessageReceive = "message_recive"
)

// JoinSession is sent by a client to enter a room.
type JoinSession struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

// JoinedSession notifies existing room members of a new participant.
type JoinedSession struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

// CanvasUpdate carries a full scene snapshot from a client. Propagate
// is false when the snapshot being re-emitted originated elsewhere; the
// relay must not echo it back into the room.
type CanvasUpdate struct {
	Type      string          `json:"type"`
	RoomID    string          `json:"room_id"`
	Canvas    json.RawMessage `json:"canvas"`
	Propagate bool            `json:"propagate"`
}

// CanvasUpdated delivers a snapshot to the other members of a room.
type CanvasUpdated struct {
	Type   string          `json:"type"`
	Canvas json.RawMessage `json:"canvas"`
}

// MessageSend is a chat message from a client.
type MessageSend struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

// MessageReceive delivers a chat message to room members.
type MessageReceive struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Body      string `json:"body"`
	Timestamp int64  `json:"ts"`
}

const maxChatBody = 4096

// Handler validates inbound wire messages and drives the registry.
// Malformed or out-of-room messages are dropped silently; nothing a
// client sends can raise a user-visible error or tear down a channel.
type Handler struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewHandler creates a protocol handler on top of a registry.
func NewHandler(registry *Registry, logger zerolog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

// Handle processes one inbound message.
func (h *Handler) Handle(conn Connection, data []byte) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		h.drop(conn, "unparseable message")
		return
	}

	switch probe.Type {
	case TypeJoinSession:
		h.handleJoin(conn, data)
	case TypeCanvasUpdate:
		h.handleCanvasUpdate(conn, data)
	case TypeMessageSend:
		h.handleMessageSend(conn, data)
	default:
		h.drop(conn, "unknown message type")
	}
}

func (h *Handler) handleJoin(conn Connection, data []byte) {
	var msg JoinSession
	if err := json.Unmarshal(data, &msg); err != nil {
		h.drop(conn, "invalid join payload")
		return
	}
	if roomid.Validate(msg.RoomID) != nil || msg.Name == "" {
		h.drop(conn, "invalid join fields")
		return
	}

	h.registry.Join(conn, msg.RoomID, msg.Name)

	note, err := json.Marshal(JoinedSession{
		Type:   TypeJoinedSession,
		RoomID: msg.RoomID,
		Name:   msg.Name,
	})
	if err != nil {
		return
	}
	h.registry.Broadcast(msg.RoomID, conn, note)
}

func (h *Handler) handleCanvasUpdate(conn Connection, data []byte) {
	var msg CanvasUpdate
	if err := json.Unmarshal(data, &msg); err != nil {
		h.drop(conn, "invalid canvas payload")
		return
	}

	// A non-propagating snapshot is the sender re-emitting state it just
	// received; swallowing it here is what breaks the echo cycle.
	if !msg.Propagate {
		metrics.SnapshotsSuppressed.Inc()
		return
	}

	if len(msg.Canvas) == 0 {
		h.drop(conn, "empty canvas snapshot")
		return
	}
	current, ok := h.registry.RoomOf(conn)
	if !ok || current != msg.RoomID {
		h.drop(conn, "canvas update outside joined room")
		return
	}

	out, err := json.Marshal(CanvasUpdated{
		Type:   TypeCanvasUpdated,
		Canvas: msg.Canvas,
	})
	if err != nil {
		return
	}
	h.registry.Broadcast(msg.RoomID, conn, out)
	metrics.SnapshotsRelayed.Inc()
}

func (h *Handler) handleMessageSend(conn Connection, data []byte) {
	var msg MessageSend
	if err := json.Unmarshal(data, &msg); err != nil {
		h.drop(conn, "invalid chat payload")
		return
	}
	if msg.Body == "" || len(msg.Body) > maxChatBody || msg.Sender == "" {
		h.drop(conn, "invalid chat fields")
		return
	}
	// Chat delivery is scoped to the sender's room. Earlier deployments
	// broadcast to every connected channel; see DESIGN.md.
	current, ok := h.registry.RoomOf(conn)
	if !ok || current != msg.RoomID {
		h.drop(conn, "chat outside joined room")
		return
	}

	out, err := json.Marshal(MessageReceive{
		Type:      TypeMessageReceive,
		ID:        ulid.Make().String(),
		Sender:    msg.Sender,
		Body:      msg.Body,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}
	h.registry.Broadcast(msg.RoomID, conn, out)
	metrics.ChatMessagesRelayed.Inc()
}

func (h *Handler) drop(conn Connection, reason string) {
	metrics.MessagesDropped.Inc()
	h.logger.Warn().
		Str("client_id", conn.ID()).
		Str("reason", reason).
		Msg("message dropped")
}
