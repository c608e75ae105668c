package duel

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/starknow-arena/internal/duel/queue"
	"github.com/gokatarajesh/starknow-arena/internal/logging"
	"github.com/gokatarajesh/starknow-arena/internal/metrics"
)

// ResultSink appends one direction of a finished duel to durable history.
type ResultSink interface {
	RecordDuelResult(ctx context.Context, subject, opponent string, subjectScore, opponentScore int) error
}

// Scoreboard receives per-player duel outcomes for ranking.
type Scoreboard interface {
	RecordDuel(ctx context.Context, playerID, displayName string, won bool, score int) error
}

// Service is the lifecycle-scoped owner of all in-memory duel state.
type Service struct {
	queue   *queue.Manager
	mailbox *Mailbox
	rooms   *Registry
	sink    ResultSink
	board   Scoreboard
	logger  zerolog.Logger
}

// NewService wires the duel structures with their collaborators. sink and
// board may be nil.
func NewService(q *queue.Manager, mailbox *Mailbox, rooms *Registry, sink ResultSink, board Scoreboard, logger zerolog.Logger) *Service {
	return &Service{
		queue:   q,
		mailbox: mailbox,
		rooms:   rooms,
		sink:    sink,
		board:   board,
		logger:  logger.With().Str("component", "duel_service").Logger(),
	}
}

// StartOrJoinMatch pairs the caller with the earliest waiting player or
// enqueues the caller. The waiter becomes host and learns about the room on
// its next poll; the caller is answered synchronously as guest.
func (s *Service) StartOrJoinMatch(ctx context.Context, p Player, topic, subtopic string) (MatchOutcome, error) {
	if p.ID == "" {
		return MatchOutcome{}, ErrInvalidInput
	}
	// A match made while the caller was away is handed over instead of queueing again.
	if pending, ok := s.mailbox.Take(p.ID); ok {
		return outcomeFromPending(pending), nil
	}

	waiter, ok := s.queue.Match(queue.Request{
		PlayerID:    p.ID,
		DisplayName: p.Name,
		Topic:       normalizeTopic(topic),
		Subtopic:    subtopic,
	})
	metrics.QueueLength.Set(float64(s.queue.Len()))
	if !ok {
		metrics.MatchRequests.WithLabelValues("waiting").Inc()
		return MatchOutcome{Waiting: true}, nil
	}

	hostPlayer := Player{ID: waiter.PlayerID, Name: waiter.DisplayName}
	room, err := s.rooms.Open(hostPlayer, p, waiter.Topic, waiter.Subtopic)
	if err != nil {
		logging.FromContext(ctx, s.logger).Error().Err(err).
			Str("player_id", p.ID).
			Str("opponent_id", waiter.PlayerID).
			Msg("open matched room failed")
		return MatchOutcome{}, err
	}
	metrics.MatchRequests.WithLabelValues("matched").Inc()
	metrics.RoomsCreated.WithLabelValues("match").Inc()
	metrics.ActiveRooms.Set(float64(s.rooms.Len()))

	s.mailbox.Put(waiter.PlayerID, PendingMatch{
		RoomID:        room.ID,
		Topic:         room.Topic,
		Subtopic:      room.Subtopic,
		Seed:          room.Seed,
		QuestionCount: room.QuestionCount,
		OpponentName:  p.Name,
		IsHost:        true,
	})

	return MatchOutcome{
		Matched:       true,
		RoomID:        room.ID,
		Topic:         room.Topic,
		Subtopic:      room.Subtopic,
		Seed:          room.Seed,
		QuestionCount: room.QuestionCount,
		OpponentName:  waiter.DisplayName,
		IsHost:        false,
	}, nil
}

// PollMatch delivers a pending match at most once.
func (s *Service) PollMatch(ctx context.Context, p Player) MatchOutcome {
	pending, ok := s.mailbox.Take(p.ID)
	if !ok {
		return MatchOutcome{}
	}
	logging.FromContext(ctx, s.logger).Debug().
		Str("player_id", p.ID).
		Str("room_id", pending.RoomID).
		Msg("pending match delivered")
	return outcomeFromPending(pending)
}

// CancelMatch withdraws the caller from the queue and discards a match made
// for them that was not yet delivered.
func (s *Service) CancelMatch(ctx context.Context, p Player) bool {
	removed := s.queue.Remove(p.ID)
	metrics.QueueLength.Set(float64(s.queue.Len()))
	if pending, ok := s.mailbox.Take(p.ID); ok {
		logging.FromContext(ctx, s.logger).Info().
			Str("player_id", p.ID).
			Str("room_id", pending.RoomID).
			Msg("pending match discarded on cancel")
		removed = true
	}
	return removed
}

// CreateRoom opens a manual room that a second player joins by code.
func (s *Service) CreateRoom(ctx context.Context, p Player, topic, subtopic string) (RoomParams, error) {
	room, err := s.rooms.Create(p, topic, subtopic)
	if err != nil {
		return RoomParams{}, err
	}
	metrics.RoomsCreated.WithLabelValues("manual").Inc()
	metrics.ActiveRooms.Set(float64(s.rooms.Len()))
	return paramsOf(room), nil
}

// JoinRoom binds the caller as guest and returns the shared quiz parameters.
func (s *Service) JoinRoom(ctx context.Context, p Player, roomID string) (RoomParams, error) {
	room, err := s.rooms.Join(roomID, p)
	if err != nil {
		return RoomParams{}, err
	}
	metrics.RoomJoins.Inc()
	return paramsOf(room), nil
}

// GetRoomStatus returns the caller's view; a view carrying the opponent
// result closes the room.
func (s *Service) GetRoomStatus(ctx context.Context, p Player, roomID string) (StatusView, error) {
	view, err := s.rooms.Status(roomID, p.ID)
	if err != nil {
		return StatusView{}, err
	}
	if view.Closed {
		metrics.ActiveRooms.Set(float64(s.rooms.Len()))
	}
	return view, nil
}

// SubmitResult records the caller's result. The submission that completes
// the pair persists both directions before returning the opponent result.
func (s *Service) SubmitResult(ctx context.Context, p Player, roomID string, in ResultInput) (SubmitResponse, error) {
	in = in.normalize()
	out, err := s.rooms.Submit(roomID, p.ID, Result{
		Score:        in.Score,
		CorrectCount: in.CorrectCount,
		Total:        in.Total,
	})
	if err != nil {
		return SubmitResponse{}, err
	}
	if out.Reconcile {
		s.reconcile(ctx, out.Room)
	}
	return SubmitResponse{RoomID: roomID, Opponent: out.Opponent}, nil
}

// reconcile runs outside the registry lock. Failures are logged and counted;
// the in-memory outcome stays authoritative.
func (s *Service) reconcile(ctx context.Context, room Room) {
	logger := logging.FromContext(ctx, s.logger).With().Str("room_id", room.ID).Logger()
	hostRes, _ := room.HostResult.Get()
	guestRes, _ := room.GuestResult.Get()
	metrics.Reconciliations.Inc()

	if s.sink != nil {
		if err := s.sink.RecordDuelResult(ctx, room.HostID, room.GuestID, hostRes.Score, guestRes.Score); err != nil {
			metrics.SinkFailures.WithLabelValues("history").Inc()
			logger.Error().Err(err).Str("player_id", room.HostID).Msg("record host duel result failed")
		}
		if err := s.sink.RecordDuelResult(ctx, room.GuestID, room.HostID, guestRes.Score, hostRes.Score); err != nil {
			metrics.SinkFailures.WithLabelValues("history").Inc()
			logger.Error().Err(err).Str("player_id", room.GuestID).Msg("record guest duel result failed")
		}
	}

	if s.board != nil {
		if err := s.board.RecordDuel(ctx, room.HostID, room.HostName, hostRes.Score > guestRes.Score, hostRes.Score); err != nil {
			metrics.SinkFailures.WithLabelValues("leaderboard").Inc()
			logger.Warn().Err(err).Str("player_id", room.HostID).Msg("leaderboard update failed")
		}
		if err := s.board.RecordDuel(ctx, room.GuestID, room.GuestName, guestRes.Score > hostRes.Score, guestRes.Score); err != nil {
			metrics.SinkFailures.WithLabelValues("leaderboard").Inc()
			logger.Warn().Err(err).Str("player_id", room.GuestID).Msg("leaderboard update failed")
		}
	}

	logger.Info().
		Str("host_id", room.HostID).
		Int("host_score", hostRes.Score).
		Str("guest_id", room.GuestID).
		Int("guest_score", guestRes.Score).
		Msg("duel reconciled")
}

// SweepStats counts entries removed by one reaper pass.
type SweepStats struct {
	Queue   int
	Mailbox int
	Rooms   int
}

// Sweep expires stale queue entries, undelivered matches and idle rooms.
func (s *Service) Sweep(now time.Time) SweepStats {
	stats := SweepStats{
		Queue:   s.queue.Sweep(now),
		Mailbox: s.mailbox.Sweep(now),
		Rooms:   s.rooms.Sweep(now),
	}
	metrics.Reaped.WithLabelValues("queue").Add(float64(stats.Queue))
	metrics.Reaped.WithLabelValues("mailbox").Add(float64(stats.Mailbox))
	metrics.Reaped.WithLabelValues("rooms").Add(float64(stats.Rooms))
	metrics.QueueLength.Set(float64(s.queue.Len()))
	metrics.ActiveRooms.Set(float64(s.rooms.Len()))
	return stats
}
