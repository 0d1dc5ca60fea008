package whiteboard

import (
	"sync"
	"time"
)

// DefaultEchoCooldown matches the browser clients: after applying a
// remote snapshot, locally observed changes are treated as echoes for
// this long.
const DefaultEchoCooldown = 500 * time.Millisecond

// EchoGuard breaks the update cycle between two live clients. When a
// remote snapshot is applied to the local scene, the scene emits
// change events just as if the user had drawn — one per object for a
// multi-object snapshot; publishing any of them would bounce the
// snapshot back forever. MarkRemote arms the guard and ShouldPublish
// reports false for the whole cooldown window. A genuine edit racing
// the window is suppressed too; the next snapshot from the room
// reconverges the scenes.
type EchoGuard struct {
	mu       sync.Mutex
	cooldown time.Duration
	armedAt  time.Time
	armed    bool

	// now is swappable for tests.
	now func() time.Time
}

// NewEchoGuard creates a guard. A zero cooldown selects
// DefaultEchoCooldown.
func NewEchoGuard(cooldown time.Duration) *EchoGuard {
	if cooldown == 0 {
		cooldown = DefaultEchoCooldown
	}
	return &EchoGuard{cooldown: cooldown, now: time.Now}
}

// MarkRemote records that remote state is being applied locally.
func (g *EchoGuard) MarkRemote() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = true
	g.armedAt = g.now()
}

// ShouldPublish reports whether a local change event is genuine. It
// returns false for every emission inside the armed window; applying a
// snapshot fires one change per object, and all of them must stay
// local.
func (g *EchoGuard) ShouldPublish() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.armed {
		return true
	}
	if g.now().Sub(g.armedAt) >= g.cooldown {
		g.armed = false
		return true
	}
	return false
}
