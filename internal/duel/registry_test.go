package duel

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sequenceIDs yields the given ids in order, then repeats the last one.
func sequenceIDs(ids ...string) IDGenerator {
	var (
		mu sync.Mutex
		i  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[i]
		if i < len(ids)-1 {
			i++
		}
		return id
	}
}

func newTestRegistry(clock *testClock, opts ...RegistryOption) *Registry {
	opts = append([]RegistryOption{WithRegistryClock(clock.Now)}, opts...)
	return NewRegistry(zerolog.Nop(), 30*time.Minute, 10, opts...)
}

var (
	host  = Player{ID: "13800000001", Name: "Hana"}
	guest = Player{ID: "13800000002", Name: "Gus"}
	other = Player{ID: "13800000003", Name: "Otto"}
)

func TestCreateRoom(t *testing.T) {
	reg := newTestRegistry(newTestClock())

	room, err := reg.Create(host, "History", "")
	require.NoError(t, err)
	assert.Len(t, room.ID, 6)
	assert.Equal(t, host.ID, room.HostID)
	assert.Equal(t, "History", room.Topic)
	assert.Equal(t, 10, room.QuestionCount)
	assert.Positive(t, room.Seed)
	assert.False(t, room.HasGuest())
	assert.Equal(t, 1, reg.Len())
}

func TestCreateRoomDefaultsTopic(t *testing.T) {
	reg := newTestRegistry(newTestClock())

	room, err := reg.Create(host, "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultTopic, room.Topic)
}

func TestCreateRoomRegeneratesOnCollision(t *testing.T) {
	reg := newTestRegistry(newTestClock(), WithIDGenerator(sequenceIDs("111111", "111111", "222222")))

	first, err := reg.Create(host, "History", "")
	require.NoError(t, err)
	second, err := reg.Create(other, "History", "")
	require.NoError(t, err)

	assert.Equal(t, "111111", first.ID)
	assert.Equal(t, "222222", second.ID)
}

func TestCreateRoomFailsWhenIDSpaceExhausted(t *testing.T) {
	reg := newTestRegistry(newTestClock(), WithIDGenerator(sequenceIDs("111111")))

	_, err := reg.Create(host, "History", "")
	require.NoError(t, err)
	_, err = reg.Create(other, "History", "")
	assert.ErrorIs(t, err, ErrRoomIDSpace)
}

func TestJoinRoom(t *testing.T) {
	reg := newTestRegistry(newTestClock())
	room, err := reg.Create(host, "History", "")
	require.NoError(t, err)

	joined, err := reg.Join(room.ID, guest)
	require.NoError(t, err)
	assert.Equal(t, room.Seed, joined.Seed)
	assert.Equal(t, room.QuestionCount, joined.QuestionCount)
	assert.Equal(t, host.Name, joined.HostName)
	assert.Equal(t, guest.ID, joined.GuestID)
}

func TestJoinRoomErrors(t *testing.T) {
	reg := newTestRegistry(newTestClock())
	room, err := reg.Create(host, "History", "")
	require.NoError(t, err)

	_, err = reg.Join("999999", guest)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = reg.Join(room.ID, host)
	assert.ErrorIs(t, err, ErrSameUser)

	_, err = reg.Join(room.ID, guest)
	require.NoError(t, err)

	_, err = reg.Join(room.ID, other)
	assert.ErrorIs(t, err, ErrRoomFull)

	_, err = reg.Join("", other)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestJoinRoomIsIdempotentForGuest(t *testing.T) {
	reg := newTestRegistry(newTestClock())
	room, err := reg.Create(host, "History", "")
	require.NoError(t, err)

	_, err = reg.Join(room.ID, guest)
	require.NoError(t, err)
	again, err := reg.Join(room.ID, guest)
	require.NoError(t, err)
	assert.Equal(t, guest.ID, again.GuestID)
}

func TestOpenBindsBothParticipants(t *testing.T) {
	reg := newTestRegistry(newTestClock())

	room, err := reg.Open(host, guest, "Science", "physics")
	require.NoError(t, err)
	assert.Equal(t, host.ID, room.HostID)
	assert.Equal(t, guest.ID, room.GuestID)
	assert.Equal(t, "physics", room.Subtopic)

	_, err = reg.Open(host, host, "Science", "")
	assert.ErrorIs(t, err, ErrSameUser)
}

func TestStatusForbiddenForOutsider(t *testing.T) {
	reg := newTestRegistry(newTestClock())
	room, err := reg.Open(host, guest, "Science", "")
	require.NoError(t, err)

	_, err = reg.Status(room.ID, other.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = reg.Status(room.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = reg.Status("000000", host.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestSubmitOverwritesSameSide(t *testing.T) {
	reg := newTestRegistry(newTestClock())
	room, err := reg.Open(host, guest, "Science", "")
	require.NoError(t, err)

	_, err = reg.Submit(room.ID, host.ID, Result{Score: 10, CorrectCount: 1, Total: 10})
	require.NoError(t, err)
	out, err := reg.Submit(room.ID, host.ID, Result{Score: 70, CorrectCount: 7, Total: 10})
	require.NoError(t, err)

	assert.Nil(t, out.Opponent)
	assert.False(t, out.Reconcile)
	res, ok := out.Room.HostResult.Get()
	require.True(t, ok)
	assert.Equal(t, 70, res.Score)
	assert.False(t, out.Room.GuestResult.Filled(), "same side never fills the other slot")
}

func TestSubmitReconcilesExactlyOnce(t *testing.T) {
	reg := newTestRegistry(newTestClock())
	room, err := reg.Open(host, guest, "Science", "")
	require.NoError(t, err)

	_, err = reg.Submit(room.ID, host.ID, Result{Score: 80, CorrectCount: 8, Total: 10})
	require.NoError(t, err)

	out, err := reg.Submit(room.ID, guest.ID, Result{Score: 60, CorrectCount: 6, Total: 10})
	require.NoError(t, err)
	assert.True(t, out.Reconcile)
	require.NotNil(t, out.Opponent)
	assert.Equal(t, host.ID, out.Opponent.ID)
	assert.Equal(t, 80, out.Opponent.Score)

	again, err := reg.Submit(room.ID, guest.ID, Result{Score: 65, CorrectCount: 6, Total: 10})
	require.NoError(t, err)
	assert.False(t, again.Reconcile)
	assert.NotNil(t, again.Opponent)
}

func TestSubmitErrors(t *testing.T) {
	reg := newTestRegistry(newTestClock())
	room, err := reg.Open(host, guest, "Science", "")
	require.NoError(t, err)

	_, err = reg.Submit("000000", host.ID, Result{})
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = reg.Submit(room.ID, other.ID, Result{})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = reg.Submit("", host.ID, Result{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStatusDeliversOpponentOnceThenRoomIsGone(t *testing.T) {
	reg := newTestRegistry(newTestClock())
	room, err := reg.Open(host, guest, "Science", "")
	require.NoError(t, err)

	_, err = reg.Submit(room.ID, host.ID, Result{Score: 80, CorrectCount: 8, Total: 10})
	require.NoError(t, err)

	view, err := reg.Status(room.ID, host.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Opponent)
	require.NotNil(t, view.MyResult)
	assert.Equal(t, 80, view.MyResult.Score)

	_, err = reg.Submit(room.ID, guest.ID, Result{Score: 60, CorrectCount: 6, Total: 10})
	require.NoError(t, err)

	view, err = reg.Status(room.ID, host.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Opponent)
	assert.True(t, view.Closed)
	assert.Equal(t, 60, view.Opponent.Score)
	assert.Equal(t, guest.Name, view.Opponent.Name)

	_, err = reg.Status(room.ID, host.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, 0, reg.Len())
}

func TestStatusBeforeOwnSubmitKeepsRoom(t *testing.T) {
	clock := newTestClock()
	reg := newTestRegistry(clock)
	room, err := reg.Open(host, guest, "Science", "")
	require.NoError(t, err)

	_, err = reg.Submit(room.ID, host.ID, Result{Score: 80, CorrectCount: 8, Total: 10})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	view, err := reg.Status(room.ID, guest.ID)
	require.NoError(t, err)
	assert.Nil(t, view.MyResult)
	assert.Nil(t, view.Opponent, "opponent result stays hidden until the caller submits")
	assert.False(t, view.Closed)
	assert.Equal(t, 1, reg.Len())

	stored, ok := reg.Get(room.ID)
	require.True(t, ok)
	assert.Equal(t, clock.Now(), stored.TouchedAt)

	out, err := reg.Submit(room.ID, guest.ID, Result{Score: 60, CorrectCount: 6, Total: 10})
	require.NoError(t, err)
	assert.True(t, out.Reconcile)
	require.NotNil(t, out.Opponent)
	assert.Equal(t, 80, out.Opponent.Score)
}

func TestSweepRemovesIdleRooms(t *testing.T) {
	clock := newTestClock()
	reg := newTestRegistry(clock, WithIDGenerator(sequenceIDs("100001", "100002")))

	stale, err := reg.Create(host, "History", "")
	require.NoError(t, err)
	clock.Advance(20 * time.Minute)
	fresh, err := reg.Create(other, "History", "")
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 1, reg.Sweep(clock.Now()))

	_, ok := reg.Get(stale.ID)
	assert.False(t, ok)
	_, ok = reg.Get(fresh.ID)
	assert.True(t, ok)
}

func TestSweepHonoursTouch(t *testing.T) {
	clock := newTestClock()
	reg := newTestRegistry(clock)

	room, err := reg.Create(host, "History", "")
	require.NoError(t, err)
	clock.Advance(25 * time.Minute)
	_, err = reg.Join(room.ID, guest)
	require.NoError(t, err)
	clock.Advance(25 * time.Minute)

	assert.Equal(t, 0, reg.Sweep(clock.Now()))
}

func TestConcurrentJoinAdmitsOneGuest(t *testing.T) {
	reg := newTestRegistry(newTestClock())
	room, err := reg.Create(host, "History", "")
	require.NoError(t, err)

	const joiners = 50
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		joined int
		full   int
	)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := reg.Join(room.ID, Player{ID: id, Name: id})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case assert.ErrorIs(t, err, ErrRoomFull):
				full++
			}
		}(fmt.Sprintf("g%02d", i))
	}
	wg.Wait()

	assert.Equal(t, 1, joined)
	assert.Equal(t, joiners-1, full)
}

func TestConcurrentSubmitReconcilesOnce(t *testing.T) {
	for i := 0; i < 20; i++ {
		reg := newTestRegistry(newTestClock())
		room, err := reg.Open(host, guest, "Science", "")
		require.NoError(t, err)

		var (
			wg         sync.WaitGroup
			reconciled int
			mu         sync.Mutex
		)
		for _, p := range []Player{host, guest} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				out, err := reg.Submit(room.ID, id, Result{Score: 50, Total: 10})
				if assert.NoError(t, err) && out.Reconcile {
					mu.Lock()
					reconciled++
					mu.Unlock()
				}
			}(p.ID)
		}
		wg.Wait()
		assert.Equal(t, 1, reconciled)
	}
}
