package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,junk=abc%")

	assert.True(t, m.Enabled("always", 1))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("junk", 1))

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout must be deterministic per user")
	}

	assert.False(t, m.Enabled("canary", 0), "percentage rollout requires a user")
}

func TestEnabled_RealtimeDefault(t *testing.T) {
	m := NewManager("realtime_notifications=on")
	assert.True(t, m.Enabled(RealtimeNotifications, 7))

	var nilManager *Manager
	assert.False(t, nilManager.Enabled(RealtimeNotifications, 7))
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, Y = 20% ,z=off ")

	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, m.Raw())

	snap := m.Snapshot(123)
	assert.Len(t, snap, 3)
	assert.True(t, snap["x"])
	assert.False(t, snap["z"])
}

func TestEnabled_RolloutShareIsRoughlyHonoured(t *testing.T) {
	m := NewManager("realtime_notifications=30%")

	on := 0
	for id := uint(1); id <= 2000; id++ {
		if m.Enabled(RealtimeNotifications, id) {
			on++
		}
	}
	assert.InDelta(t, 600, on, 120)
}

func TestEnabled_PercentIsClamped(t *testing.T) {
	m := NewManager("over=150%,under=-5%,bare=50")

	assert.True(t, m.Enabled("over", 9))
	assert.False(t, m.Enabled("under", 9))
	assert.False(t, m.Enabled("bare", 9), "a number without % is not a rollout")
}

func TestNames_Sorted(t *testing.T) {
	m := NewManager("b=on,a=off,c=10%")
	assert.Equal(t, []string{"a", "b", "c"}, m.Names())
}
