package toast

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_PushAndExpire(t *testing.T) {
	n := NewNotifier(time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	n.Success("Airline created")
	now = now.Add(500 * time.Millisecond)
	n.Error("Failed to delete flight")

	active := n.Active()
	require.Len(t, active, 2)
	assert.Equal(t, LevelSuccess, active[0].Level)
	assert.Equal(t, "Failed to delete flight", active[1].Message)
	_, err := uuid.Parse(active[0].ID)
	assert.NoError(t, err)

	now = now.Add(700 * time.Millisecond)
	active = n.Active()
	require.Len(t, active, 1)
	assert.Equal(t, LevelError, active[0].Level)
}

func TestNotifier_Dismiss(t *testing.T) {
	n := NewNotifier(0)
	first := n.Push(LevelInfo, "one")
	n.Push(LevelInfo, "two")

	assert.True(t, n.Dismiss(first.ID))
	assert.False(t, n.Dismiss(first.ID))
	active := n.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "two", active[0].Message)
}

func TestNotifier_OnPush(t *testing.T) {
	n := NewNotifier(0)
	calls := 0
	n.OnPush(func() { calls++ })
	n.Success("saved")
	n.Error("failed")
	assert.Equal(t, 2, calls)
}
