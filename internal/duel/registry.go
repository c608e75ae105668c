package duel

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultRoomTTL is the inactivity window after which a room is reaped.
	DefaultRoomTTL = 30 * time.Minute
	// DefaultQuestionCount is the fixed number of questions per duel.
	DefaultQuestionCount = 10
)

// Registry owns every live duel room. All methods are atomic with respect to
// each other.
type Registry struct {
	mu            sync.Mutex
	rooms         map[string]*Room
	ids           IDGenerator
	now           func() time.Time
	ttl           time.Duration
	questionCount int
	logger        zerolog.Logger
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithIDGenerator replaces the room id source.
func WithIDGenerator(gen IDGenerator) RegistryOption {
	return func(r *Registry) {
		if gen != nil {
			r.ids = gen
		}
	}
}

// WithRegistryClock replaces the time source.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates an empty room registry.
func NewRegistry(logger zerolog.Logger, ttl time.Duration, questionCount int, opts ...RegistryOption) *Registry {
	if ttl <= 0 {
		ttl = DefaultRoomTTL
	}
	if questionCount <= 0 {
		questionCount = DefaultQuestionCount
	}
	r := &Registry{
		rooms:         make(map[string]*Room),
		ids:           RandomRoomID,
		now:           time.Now,
		ttl:           ttl,
		questionCount: questionCount,
		logger:        logger.With().Str("component", "duel_registry").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SubmitOutcome reports what a submission changed.
type SubmitOutcome struct {
	Room     Room
	IsHost   bool
	Opponent *OpponentResult
	// Reconcile is true exactly once per room: on the first submission that
	// finds both slots filled. The caller must persist the pair.
	Reconcile bool
}

// Create registers a manual room hosted by host. The guest slot stays empty
// until Join.
func (r *Registry) Create(host Player, topic, subtopic string) (Room, error) {
	if host.ID == "" {
		return Room{}, ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.newIDLocked()
	if err != nil {
		return Room{}, err
	}
	now := r.now()
	room := &Room{
		ID:            id,
		HostID:        host.ID,
		HostName:      host.Name,
		Topic:         normalizeTopic(topic),
		Subtopic:      subtopic,
		Seed:          DeriveSeed(host.ID, id, now),
		QuestionCount: r.questionCount,
		CreatedAt:     now,
		TouchedAt:     now,
	}
	r.rooms[id] = room

	r.logger.Info().
		Str("room_id", id).
		Str("player_id", host.ID).
		Str("topic", room.Topic).
		Msg("room created")
	return *room, nil
}

// Open registers a room with both participants already bound; used by matchmaking.
func (r *Registry) Open(host, guest Player, topic, subtopic string) (Room, error) {
	if host.ID == "" || guest.ID == "" {
		return Room{}, ErrInvalidInput
	}
	if host.ID == guest.ID {
		return Room{}, ErrSameUser
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.newIDLocked()
	if err != nil {
		return Room{}, err
	}
	now := r.now()
	room := &Room{
		ID:            id,
		HostID:        host.ID,
		HostName:      host.Name,
		GuestID:       guest.ID,
		GuestName:     guest.Name,
		Topic:         normalizeTopic(topic),
		Subtopic:      subtopic,
		Seed:          DeriveSeed(host.ID, guest.ID, now),
		QuestionCount: r.questionCount,
		CreatedAt:     now,
		TouchedAt:     now,
	}
	r.rooms[id] = room

	r.logger.Info().
		Str("room_id", id).
		Str("host_id", host.ID).
		Str("guest_id", guest.ID).
		Msg("matched room opened")
	return *room, nil
}

// Join binds guest into the room. Joining a room one already occupies as the
// guest is a no-op.
func (r *Registry) Join(roomID string, guest Player) (Room, error) {
	if roomID == "" || guest.ID == "" {
		return Room{}, ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return Room{}, ErrRoomNotFound
	}
	if room.HostID == guest.ID {
		return Room{}, ErrSameUser
	}
	if room.GuestID == guest.ID {
		room.TouchedAt = r.now()
		return *room, nil
	}
	if room.HasGuest() {
		return Room{}, ErrRoomFull
	}

	room.GuestID = guest.ID
	room.GuestName = guest.Name
	room.TouchedAt = r.now()

	r.logger.Info().
		Str("room_id", roomID).
		Str("player_id", guest.ID).
		Msg("guest joined room")
	return *room, nil
}

// Status returns the caller's view of the room. The opponent result is only
// revealed once the caller has submitted too; that read removes the room.
func (r *Registry) Status(roomID, callerID string) (StatusView, error) {
	if roomID == "" {
		return StatusView{}, ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return StatusView{}, ErrRoomNotFound
	}
	if !room.IsParticipant(callerID) {
		return StatusView{}, ErrForbidden
	}

	isHost := callerID == room.HostID
	view := StatusView{RoomParams: paramsOf(*room), IsHost: isHost}
	mine, theirs := room.slots(isHost)
	res, submitted := mine.Get()
	if !submitted {
		room.TouchedAt = r.now()
		return view, nil
	}
	view.MyResult = &res

	if opp := room.opponentResult(isHost, theirs); opp != nil {
		view.Opponent = opp
		view.Closed = true
		delete(r.rooms, roomID)
		r.logger.Info().
			Str("room_id", roomID).
			Str("player_id", callerID).
			Msg("opponent result delivered, room closed")
		return view, nil
	}

	room.TouchedAt = r.now()
	return view, nil
}

// Submit stores the caller's result in its slot, overwriting any earlier one.
func (r *Registry) Submit(roomID, callerID string, res Result) (SubmitOutcome, error) {
	if roomID == "" {
		return SubmitOutcome{}, ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return SubmitOutcome{}, ErrRoomNotFound
	}
	if !room.IsParticipant(callerID) {
		return SubmitOutcome{}, ErrForbidden
	}

	now := r.now()
	if res.SubmittedAt.IsZero() {
		res.SubmittedAt = now
	}
	isHost := callerID == room.HostID
	if isHost {
		room.HostResult.Set(res)
	} else {
		room.GuestResult.Set(res)
	}
	room.TouchedAt = now

	out := SubmitOutcome{IsHost: isHost}
	_, theirs := room.slots(isHost)
	out.Opponent = room.opponentResult(isHost, theirs)
	if out.Opponent != nil && !room.Reconciled {
		room.Reconciled = true
		out.Reconcile = true
	}
	out.Room = *room

	r.logger.Info().
		Str("room_id", roomID).
		Str("player_id", callerID).
		Bool("is_host", isHost).
		Int("score", res.Score).
		Bool("reconcile", out.Reconcile).
		Msg("result submitted")
	return out, nil
}

// Get returns a copy of the room.
func (r *Registry) Get(roomID string) (Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return Room{}, false
	}
	return *room, true
}

// Sweep removes rooms untouched for at least the TTL.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	expired := 0
	for id, room := range r.rooms {
		if now.Sub(room.TouchedAt) >= r.ttl {
			delete(r.rooms, id)
			expired++
		}
	}
	if expired > 0 {
		r.logger.Info().Int("expired", expired).Int("remaining", len(r.rooms)).Msg("idle rooms reaped")
	}
	return expired
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

func (r *Registry) newIDLocked() (string, error) {
	for i := 0; i < maxRoomIDAttempts; i++ {
		id := r.ids()
		if _, taken := r.rooms[id]; !taken && id != "" {
			return id, nil
		}
	}
	r.logger.Error().Int("rooms", len(r.rooms)).Msg("room id space exhausted")
	return "", ErrRoomIDSpace
}

// slots returns the caller's slot and the opponent's slot.
func (r *Room) slots(isHost bool) (mine, theirs Slot) {
	if isHost {
		return r.HostResult, r.GuestResult
	}
	return r.GuestResult, r.HostResult
}

func (r *Room) opponentResult(isHost bool, theirs Slot) *OpponentResult {
	res, ok := theirs.Get()
	if !ok {
		return nil
	}
	opp := &OpponentResult{
		Score:        res.Score,
		CorrectCount: res.CorrectCount,
		Total:        res.Total,
	}
	if isHost {
		opp.ID, opp.Name = r.GuestID, r.GuestName
	} else {
		opp.ID, opp.Name = r.HostID, r.HostName
	}
	return opp
}

func normalizeTopic(topic string) string {
	if topic == "" {
		return DefaultTopic
	}
	return topic
}
