package queue

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTTL is how long a waiting entry stays eligible for matching.
const DefaultTTL = 60 * time.Second

// Entry represents a queued player.
type Entry struct {
	PlayerID    string
	DisplayName string
	Topic       string
	Subtopic    string
	EnqueuedAt  time.Time
}

// Request asks for a duel opponent.
type Request struct {
	PlayerID    string
	DisplayName string
	Topic       string
	Subtopic    string
}

// Manager is the in-memory FIFO matchmaking queue.
type Manager struct {
	mu      sync.Mutex
	waiting []Entry
	ttl     time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewManager creates a matchmaking queue. A non-positive ttl falls back to DefaultTTL.
func NewManager(logger zerolog.Logger, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With().Str("component", "duel_queue").Logger(),
	}
}

// WithClock replaces the time source; used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Match sweeps expired entries, then pairs the caller with the earliest
// waiting entry that is not the caller. The matched waiter is removed and
// returned. When nobody else is waiting the caller is enqueued (or its
// existing entry refreshed) and ok is false.
func (m *Manager) Match(req Request) (waiter Entry, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweepLocked(now)

	own := -1
	for i, e := range m.waiting {
		if e.PlayerID == req.PlayerID {
			if own < 0 {
				own = i
			}
			continue
		}
		waiter = e
		m.removeLocked(i)
		// The caller is matched now; drop any stale entry it left behind.
		m.removePlayerLocked(req.PlayerID)
		m.logger.Info().
			Str("player_id", req.PlayerID).
			Str("opponent_id", waiter.PlayerID).
			Dur("waited", now.Sub(waiter.EnqueuedAt)).
			Msg("players matched")
		return waiter, true
	}

	entry := Entry{
		PlayerID:    req.PlayerID,
		DisplayName: req.DisplayName,
		Topic:       req.Topic,
		Subtopic:    req.Subtopic,
		EnqueuedAt:  now,
	}
	if own >= 0 {
		m.waiting[own] = entry
		m.logger.Debug().Str("player_id", req.PlayerID).Msg("queue entry refreshed")
		return Entry{}, false
	}

	m.waiting = append(m.waiting, entry)
	m.logger.Info().
		Str("player_id", req.PlayerID).
		Str("topic", req.Topic).
		Int("queue_len", len(m.waiting)).
		Msg("player enqueued")
	return Entry{}, false
}

// Remove drops a player's waiting entry. It reports whether one existed.
func (m *Manager) Remove(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := m.removePlayerLocked(playerID)
	if removed {
		m.logger.Info().Str("player_id", playerID).Msg("player dequeued")
	}
	return removed
}

// Contains reports whether the player is currently waiting.
func (m *Manager) Contains(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.waiting {
		if e.PlayerID == playerID {
			return true
		}
	}
	return false
}

// Sweep drops entries whose age reached the TTL and returns how many were dropped.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(now)
}

// Len returns the number of waiting entries.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiting)
}

func (m *Manager) sweepLocked(now time.Time) int {
	kept := m.waiting[:0]
	expired := 0
	for _, e := range m.waiting {
		if now.Sub(e.EnqueuedAt) >= m.ttl {
			expired++
			continue
		}
		kept = append(kept, e)
	}
	// Clear the tail so dropped entries are not retained by the backing array.
	for i := len(kept); i < len(m.waiting); i++ {
		m.waiting[i] = Entry{}
	}
	m.waiting = kept
	if expired > 0 {
		m.logger.Debug().Int("expired", expired).Msg("queue entries expired")
	}
	return expired
}

func (m *Manager) removeLocked(i int) {
	copy(m.waiting[i:], m.waiting[i+1:])
	m.waiting[len(m.waiting)-1] = Entry{}
	m.waiting = m.waiting[:len(m.waiting)-1]
}

func (m *Manager) removePlayerLocked(playerID string) bool {
	removed := false
	for i := 0; i < len(m.waiting); {
		if m.waiting[i].PlayerID == playerID {
			m.removeLocked(i)
			removed = true
			continue
		}
		i++
	}
	return removed
}
