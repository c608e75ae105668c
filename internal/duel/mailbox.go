package duel

import (
	"sync"
	"time"
)

type mailboxSlot struct {
	match PendingMatch
	at    time.Time
}

// Mailbox holds at most one pending match per player until that player polls.
// A second Put before Take overwrites the first.
type Mailbox struct {
	mu    sync.Mutex
	slots map[string]mailboxSlot
	ttl   time.Duration
	now   func() time.Time
}

// NewMailbox creates a mailbox whose undelivered entries expire after ttl.
func NewMailbox(ttl time.Duration) *Mailbox {
	if ttl <= 0 {
		ttl = DefaultRoomTTL
	}
	return &Mailbox{
		slots: make(map[string]mailboxSlot),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put stores m for playerID, replacing any undelivered entry.
func (b *Mailbox) Put(playerID string, m PendingMatch) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slots[playerID] = mailboxSlot{match: m, at: b.now()}
}

// Take returns and removes the player's pending match.
func (b *Mailbox) Take(playerID string) (PendingMatch, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	slot, ok := b.slots[playerID]
	if !ok {
		return PendingMatch{}, false
	}
	delete(b.slots, playerID)
	return slot.match, true
}

// Sweep removes entries older than the TTL.
func (b *Mailbox) Sweep(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	expired := 0
	for id, slot := range b.slots {
		if now.Sub(slot.at) >= b.ttl {
			delete(b.slots, id)
			expired++
		}
	}
	return expired
}

// Len returns the number of undelivered entries.
func (b *Mailbox) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.slots)
}
