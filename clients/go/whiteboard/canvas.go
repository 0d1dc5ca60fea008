package whiteboard

import (
	"encoding/json"
	"sync"
)

// Scene holds the local canvas state as a history stack of full
// snapshots. Push after each committed edit; Undo and Redo walk the
// stack. Pushing after an Undo discards the redo branch.
type Scene struct {
	mu      sync.Mutex
	history []json.RawMessage
	idx     int // points one past the current snapshot
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

// Current returns the active snapshot, or nil when the scene is empty.
func (s *Scene) Current() json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx == 0 {
		return nil
	}
	return s.history[s.idx-1]
}

// Push records a new snapshot as the current state.
func (s *Scene) Push(snapshot json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history[:s.idx], snapshot)
	s.idx = len(s.history)
}

// Undo steps back one snapshot. It reports false at the bottom of the
// stack.
func (s *Scene) Undo() (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx <= 1 {
		return nil, false
	}
	s.idx--
	return s.history[s.idx-1], true
}

// Redo steps forward one snapshot. It reports false when nothing was
// undone.
func (s *Scene) Redo() (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx >= len(s.history) {
		return nil, false
	}
	s.idx++
	return s.history[s.idx-1], true
}

// Clear drops the history.
func (s *Scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.idx = 0
}

// Len returns the number of stored snapshots.
func (s *Scene) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// snapshot is the scene wire shape: a flat object list, each object an
// opaque JSON blob owned by the rendering layer.
type snapshot struct {
	Objects []json.RawMessage `json:"objects"`
}

// Objects decodes the current snapshot's object list. An empty scene
// or a snapshot without an object list yields nil.
func (s *Scene) Objects() []json.RawMessage {
	cur := s.Current()
	if cur == nil {
		return nil
	}
	var snap snapshot
	if err := json.Unmarshal(cur, &snap); err != nil {
		return nil
	}
	return snap.Objects
}

// Add appends an object to the scene and commits the result as a new
// snapshot.
func (s *Scene) Add(obj json.RawMessage) {
	objs := append(s.Objects(), obj)
	s.commit(objs)
}

// Remove deletes the object at index i. Out-of-range indices are
// ignored.
func (s *Scene) Remove(i int) {
	objs := s.Objects()
	if i < 0 || i >= len(objs) {
		return
	}
	s.commit(append(objs[:i], objs[i+1:]...))
}

func (s *Scene) commit(objs []json.RawMessage) {
	data, err := json.Marshal(snapshot{Objects: objs})
	if err != nil {
		return
	}
	s.Push(data)
}
