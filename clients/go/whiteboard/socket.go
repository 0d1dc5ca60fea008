package whiteboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Wire message types, mirroring the server relay. "message_recive"
// keeps the protocol's historical spelling.
const (
	typeJoinSession    = "join_session"
	typeJoinedSession  = "joined_session"
	typeCanvasUpdate   = "canvas_update"
	typeCanvasUpdated  = "canvas_updated"
	typeMessageSend    = "message_send"
	typeMessageReceive = "message_recive"
)

// ChatMessage is a chat message delivered to room members.
type ChatMessage struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Body      string `json:"body"`
	Timestamp int64  `json:"ts"`
}

// Participant announces a new room member.
type Participant struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

// ErrSocketClosed is returned by sends after Close or a read failure.
var ErrSocketClosed = errors.New("socket closed")

// Socket is a realtime connection to the relay. Handlers registered
// with the On* methods run on the read goroutine; each registration
// returns a function that removes it again.
type Socket struct {
	ws    *websocket.Conn
	guard *EchoGuard

	mu       sync.Mutex
	closed   bool
	nextID   int
	onCanvas map[int]func(json.RawMessage)
	onChat   map[int]func(ChatMessage)
	onJoin   map[int]func(Participant)
}

// Dial connects to the relay websocket endpoint. The httpURL is the
// server base URL; the scheme is rewritten for the socket.
func Dial(ctx context.Context, httpURL string, guard *EchoGuard) (*Socket, error) {
	wsURL := strings.Replace(httpURL, "http", "ws", 1) + "/ws"

	if guard == nil {
		guard = NewEchoGuard(0)
	}

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
		ws.Close()
		return nil, errors.New("unexpected handshake response")
	}

	s := &Socket{
		ws:       ws,
		guard:    guard,
		onCanvas: map[int]func(json.RawMessage){},
		onChat:   map[int]func(ChatMessage){},
		onJoin:   map[int]func(Participant){},
	}
	go s.readLoop()
	return s, nil
}

// Join enters a room. The server announces the arrival to members
// already present.
func (s *Socket) Join(roomID, name string) error {
	return s.send(map[string]string{
		"type":    typeJoinSession,
		"room_id": roomID,
		"name":    name,
	})
}

// PublishCanvas sends a scene snapshot to the room. Snapshots applied
// from a remote update are suppressed by the echo guard; the wire
// message still goes out with propagate=false so the relay can count
// the suppression.
func (s *Socket) PublishCanvas(roomID string, canvas json.RawMessage) error {
	return s.send(map[string]interface{}{
		"type":      typeCanvasUpdate,
		"room_id":   roomID,
		"canvas":    canvas,
		"propagate": s.guard.ShouldPublish(),
	})
}

// SendChat sends a chat message to the room.
func (s *Socket) SendChat(roomID, sender, body string) error {
	return s.send(map[string]string{
		"type":    typeMessageSend,
		"room_id": roomID,
		"sender":  sender,
		"body":    body,
	})
}

// OnCanvas registers a handler for incoming snapshots. The returned
// function unsubscribes it.
func (s *Socket) OnCanvas(fn func(json.RawMessage)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.onCanvas[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.onCanvas, id)
	}
}

// OnChat registers a handler for incoming chat messages.
func (s *Socket) OnChat(fn func(ChatMessage)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.onChat[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.onChat, id)
	}
}

// Attach binds a scene to the socket: every incoming snapshot replaces
// the scene's current state. The returned function detaches it.
func (s *Socket) Attach(scene *Scene) func() {
	return s.OnCanvas(func(c json.RawMessage) {
		scene.Push(c)
	})
}

// OnJoin registers a handler for participant announcements.
func (s *Socket) OnJoin(fn func(Participant)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.onJoin[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.onJoin, id)
	}
}

// Close shuts the connection down.
func (s *Socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.ws.Close()
}

func (s *Socket) send(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSocketClosed
	}
	return s.ws.WriteJSON(v)
}

func (s *Socket) readLoop() {
	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			s.mu.Lock()
			s.closed = true
			s.mu.Unlock()
			return
		}
		s.dispatch(data)
	}
}

func (s *Socket) dispatch(data []byte) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return
	}

	switch probe.Type {
	case typeCanvasUpdated:
		var msg struct {
			Canvas json.RawMessage `json:"canvas"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		// Remote state is about to be applied locally; arm the guard so
		// the re-emit does not bounce back into the room.
		s.guard.MarkRemote()
		for _, fn := range s.handlersCanvas() {
			fn(msg.Canvas)
		}
	case typeMessageReceive:
		var msg ChatMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		for _, fn := range s.handlersChat() {
			fn(msg)
		}
	case typeJoinedSession:
		var msg Participant
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		for _, fn := range s.handlersJoin() {
			fn(msg)
		}
	}
}

func (s *Socket) handlersCanvas() []func(json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]func(json.RawMessage), 0, len(s.onCanvas))
	for _, fn := range s.onCanvas {
		out = append(out, fn)
	}
	return out
}

func (s *Socket) handlersChat() []func(ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]func(ChatMessage), 0, len(s.onChat))
	for _, fn := range s.onChat {
		out = append(out, fn)
	}
	return out
}

func (s *Socket) handlersJoin() []func(Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]func(Participant), 0, len(s.onJoin))
	for _, fn := range s.onJoin {
		out = append(out, fn)
	}
	return out
}
