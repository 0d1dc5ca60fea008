package relay

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() (*Handler, *Registry) {
	r := newTestRegistry()
	return NewHandler(r, zerolog.Nop()), r
}

func join(t *testing.T, h *Handler, conn Connection, roomID, name string) {
	t.Helper()
	msg := fmt.Sprintf(`{"type":"join_session","room_id":%q,"name":%q}`, roomID, name)
	h.Handle(conn, []byte(msg))
}

func decodeType(t *testing.T, data []byte) string {
	t.Helper()
	var probe struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(data, &probe))
	return probe.Type
}

func TestHandler_JoinNotifiesExistingMembers(t *testing.T) {
	h, r := newTestHandler()

	a := &mockConn{id: "a"}
	b := &mockConn{id: "b"}
	join(t, h, a, "ABCDE-kx1a2b", "alice")
	join(t, h, b, "ABCDE-kx1a2b", "bob")

	// A was already in the room when B joined.
	require.Len(t, a.getReceived(), 1)
	var note JoinedSession
	require.NoError(t, json.Unmarshal(a.getReceived()[0], &note))
	assert.Equal(t, TypeJoinedSession, note.Type)
	assert.Equal(t, "ABCDE-kx1a2b", note.RoomID)
	assert.Equal(t, "bob", note.Name)

	// The joiner is not notified about itself.
	assert.Empty(t, b.getReceived())

	_, clients := r.Stats()
	assert.Equal(t, 2, clients)
}

func TestHandler_JoinRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name string
		msg  string
	}{
		{"bad room id", `{"type":"join_session","room_id":"../etc","name":"alice"}`},
		{"missing name", `{"type":"join_session","room_id":"ABCDE-kx1a2b"}`},
		{"not json", `{"type":"join_session"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, r := newTestHandler()
			c := &mockConn{id: "c"}
			h.Handle(c, []byte(tt.msg))
			_, clients := r.Stats()
			assert.Equal(t, 0, clients)
		})
	}
}

func TestHandler_CanvasUpdatePropagates(t *testing.T) {
	h, _ := newTestHandler()

	a := &mockConn{id: "a"}
	b := &mockConn{id: "b"}
	other := &mockConn{id: "other"}
	join(t, h, a, "ABCDE-kx1a2b", "alice")
	join(t, h, b, "ABCDE-kx1a2b", "bob")
	join(t, h, other, "FGHIJ-kx1a2c", "carol")

	before := len(b.getReceived())
	h.Handle(a, []byte(`{"type":"canvas_update","room_id":"ABCDE-kx1a2b","canvas":{"objects":[1,2]},"propagate":true}`))

	got := b.getReceived()
	require.Len(t, got, before+1)
	var out CanvasUpdated
	require.NoError(t, json.Unmarshal(got[len(got)-1], &out))
	assert.Equal(t, TypeCanvasUpdated, out.Type)
	assert.JSONEq(t, `{"objects":[1,2]}`, string(out.Canvas))

	// Sender excluded, other rooms untouched.
	assert.Empty(t, a.getReceived())
	assert.Empty(t, other.getReceived())
}

func TestHandler_CanvasUpdateNonPropagatingIsNoop(t *testing.T) {
	h, _ := newTestHandler()

	a := &mockConn{id: "a"}
	b := &mockConn{id: "b"}
	join(t, h, a, "ABCDE-kx1a2b", "alice")
	join(t, h, b, "ABCDE-kx1a2b", "bob")
	before := len(b.getReceived())

	h.Handle(a, []byte(`{"type":"canvas_update","room_id":"ABCDE-kx1a2b","canvas":{"objects":[]},"propagate":false}`))

	assert.Len(t, b.getReceived(), before, "propagate=false must never be delivered")
}

func TestHandler_CanvasUpdateOutsideJoinedRoomDropped(t *testing.T) {
	h, _ := newTestHandler()

	a := &mockConn{id: "a"}
	b := &mockConn{id: "b"}
	join(t, h, a, "ABCDE-kx1a2b", "alice")
	join(t, h, b, "FGHIJ-kx1a2c", "bob")

	// A claims a room it is not a member of.
	h.Handle(a, []byte(`{"type":"canvas_update","room_id":"FGHIJ-kx1a2c","canvas":{"objects":[]},"propagate":true}`))
	assert.Empty(t, b.getReceived())

	// Never joined at all.
	stranger := &mockConn{id: "stranger"}
	h.Handle(stranger, []byte(`{"type":"canvas_update","room_id":"ABCDE-kx1a2b","canvas":{"objects":[]},"propagate":true}`))
	assert.Empty(t, a.getReceived())
}

func TestHandler_ChatIsRoomScoped(t *testing.T) {
	h, _ := newTestHandler()

	a := &mockConn{id: "a"}
	b := &mockConn{id: "b"}
	other := &mockConn{id: "other"}
	join(t, h, a, "ABCDE-kx1a2b", "alice")
	join(t, h, b, "ABCDE-kx1a2b", "bob")
	join(t, h, other, "FGHIJ-kx1a2c", "carol")

	before := len(b.getReceived())
	h.Handle(a, []byte(`{"type":"message_send","room_id":"ABCDE-kx1a2b","sender":"alice","body":"hi"}`))

	got := b.getReceived()
	require.Len(t, got, before+1)
	var msg MessageReceive
	require.NoError(t, json.Unmarshal(got[len(got)-1], &msg))
	assert.Equal(t, TypeMessageReceive, msg.Type)
	assert.Equal(t, "alice", msg.Sender)
	assert.Equal(t, "hi", msg.Body)
	assert.NotEmpty(t, msg.ID)
	assert.NotZero(t, msg.Timestamp)

	assert.Empty(t, a.getReceived(), "sender excluded")
	assert.Empty(t, other.getReceived(), "chat must not cross rooms")
}

func TestHandler_ChatValidation(t *testing.T) {
	h, _ := newTestHandler()
	a := &mockConn{id: "a"}
	b := &mockConn{id: "b"}
	join(t, h, a, "ABCDE-kx1a2b", "alice")
	join(t, h, b, "ABCDE-kx1a2b", "bob")
	before := len(b.getReceived())

	tests := []struct {
		name string
		msg  string
	}{
		{"empty body", `{"type":"message_send","room_id":"ABCDE-kx1a2b","sender":"alice","body":""}`},
		{"missing sender", `{"type":"message_send","room_id":"ABCDE-kx1a2b","body":"hi"}`},
		{"wrong room", `{"type":"message_send","room_id":"FGHIJ-kx1a2c","sender":"alice","body":"hi"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.Handle(a, []byte(tt.msg))
			assert.Len(t, b.getReceived(), before)
		})
	}
}

func TestHandler_UnknownAndMalformedDroppedSilently(t *testing.T) {
	h, r := newTestHandler()
	a := &mockConn{id: "a"}
	join(t, h, a, "ABCDE-kx1a2b", "alice")

	h.Handle(a, []byte(`not json at all`))
	h.Handle(a, []byte(`{"type":"canvas_updated","canvas":{}}`)) // server-to-client type
	h.Handle(a, []byte(`{"type":"shutdown_everything"}`))

	// The connection is still a member; bad messages never tear it down.
	roomID, ok := r.RoomOf(a)
	require.True(t, ok)
	assert.Equal(t, "ABCDE-kx1a2b", roomID)
}

func TestHandler_TwoClientScenario(t *testing.T) {
	h, _ := newTestHandler()

	a := &mockConn{id: "A"}
	b := &mockConn{id: "B"}
	join(t, h, a, "ABCDE-kx1a2b", "A")
	join(t, h, b, "ABCDE-kx1a2b", "B")

	snapshot := `{"version":"5.3.0","objects":[{"type":"path"}]}`
	h.Handle(a, []byte(`{"type":"canvas_update","room_id":"ABCDE-kx1a2b","canvas":`+snapshot+`,"propagate":true}`))

	// B receives exactly the snapshot, A receives nothing.
	var sawSnapshot bool
	for _, raw := range b.getReceived() {
		if decodeType(t, raw) != TypeCanvasUpdated {
			continue
		}
		var out CanvasUpdated
		require.NoError(t, json.Unmarshal(raw, &out))
		assert.JSONEq(t, snapshot, string(out.Canvas))
		sawSnapshot = true
	}
	assert.True(t, sawSnapshot)
	assert.Empty(t, a.getReceived())

	// B re-emits the applied state with propagate=false during its
	// cool-down; nothing comes back to A.
	h.Handle(b, []byte(`{"type":"canvas_update","room_id":"ABCDE-kx1a2b","canvas":`+snapshot+`,"propagate":false}`))
	assert.Empty(t, a.getReceived())
}
