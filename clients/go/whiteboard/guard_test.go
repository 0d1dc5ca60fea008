package whiteboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEchoGuard_SuppressesWholeWindow(t *testing.T) {
	clock := time.Unix(0, 0)
	g := NewEchoGuard(500 * time.Millisecond)
	g.now = func() time.Time { return clock }

	// No remote state applied yet: local edits publish.
	assert.True(t, g.ShouldPublish())

	g.MarkRemote()

	// Applying a multi-object snapshot fires one change per object;
	// every emission inside the window must be suppressed.
	for _, offset := range []time.Duration{0, 50 * time.Millisecond, 100 * time.Millisecond, 499 * time.Millisecond} {
		clock = time.Unix(0, 0).Add(offset)
		assert.False(t, g.ShouldPublish(), "emission at +%v must be suppressed", offset)
	}

	clock = time.Unix(0, 0).Add(500 * time.Millisecond)
	assert.True(t, g.ShouldPublish(), "window over, edits publish again")
}

func TestEchoGuard_ExpiresAfterCooldown(t *testing.T) {
	clock := time.Unix(0, 0)
	g := NewEchoGuard(500 * time.Millisecond)
	g.now = func() time.Time { return clock }

	g.MarkRemote()
	clock = clock.Add(600 * time.Millisecond)
	assert.True(t, g.ShouldPublish(), "a stale arm must not swallow a genuine edit")
	assert.True(t, g.ShouldPublish(), "disarmed guard stays disarmed")
}

func TestEchoGuard_RearmExtendsWindow(t *testing.T) {
	clock := time.Unix(0, 0)
	g := NewEchoGuard(500 * time.Millisecond)
	g.now = func() time.Time { return clock }

	g.MarkRemote()
	clock = clock.Add(400 * time.Millisecond)
	assert.False(t, g.ShouldPublish())

	// A second snapshot lands before the first window closes; the
	// window restarts from the later arm.
	g.MarkRemote()
	clock = clock.Add(400 * time.Millisecond)
	assert.False(t, g.ShouldPublish(), "window measures from the latest arm")

	clock = clock.Add(100 * time.Millisecond)
	assert.True(t, g.ShouldPublish())
}

func TestEchoGuard_DefaultCooldown(t *testing.T) {
	g := NewEchoGuard(0)
	assert.Equal(t, DefaultEchoCooldown, g.cooldown)
}
