package duel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailboxTakeIsReadOnce(t *testing.T) {
	box := NewMailbox(time.Minute)

	box.Put("a", PendingMatch{RoomID: "123456", IsHost: true})

	m, ok := box.Take("a")
	require.True(t, ok)
	assert.Equal(t, "123456", m.RoomID)
	assert.True(t, m.IsHost)

	_, ok = box.Take("a")
	assert.False(t, ok)
}

func TestMailboxLastWriteWins(t *testing.T) {
	box := NewMailbox(time.Minute)

	box.Put("a", PendingMatch{RoomID: "111111"})
	box.Put("a", PendingMatch{RoomID: "222222"})
	assert.Equal(t, 1, box.Len())

	m, ok := box.Take("a")
	require.True(t, ok)
	assert.Equal(t, "222222", m.RoomID)
}

func TestMailboxSweep(t *testing.T) {
	clock := newTestClock()
	box := NewMailbox(time.Minute)
	box.now = clock.Now

	box.Put("old", PendingMatch{RoomID: "111111"})
	clock.Advance(45 * time.Second)
	box.Put("new", PendingMatch{RoomID: "222222"})
	clock.Advance(15 * time.Second)

	assert.Equal(t, 1, box.Sweep(clock.Now()))
	_, ok := box.Take("old")
	assert.False(t, ok)
	_, ok = box.Take("new")
	assert.True(t, ok)
}
