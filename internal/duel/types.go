package duel

import "time"

// DefaultTopic is used when a request does not name a topic.
const DefaultTopic = "all"

// Player is a verified duel participant: ID is the phone number.
type Player struct {
	ID   string
	Name string
}

// Result is one side's submitted quiz outcome.
type Result struct {
	Score        int       `json:"score"`
	CorrectCount int       `json:"correctCount"`
	Total        int       `json:"total"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// Slot holds at most one Result. Set overwrites (last write wins).
type Slot struct {
	result Result
	filled bool
}

// Set stores r, replacing any earlier result.
func (s *Slot) Set(r Result) {
	s.result = r
	s.filled = true
}

// Get returns the stored result and whether one was ever set.
func (s Slot) Get() (Result, bool) {
	return s.result, s.filled
}

// Filled reports whether a result is present.
func (s Slot) Filled() bool {
	return s.filled
}

// Room is the ephemeral two-party duel session.
type Room struct {
	ID            string
	HostID        string
	HostName      string
	GuestID       string
	GuestName     string
	Topic         string
	Subtopic      string
	Seed          int64
	QuestionCount int
	HostResult    Slot
	GuestResult   Slot
	Reconciled    bool
	CreatedAt     time.Time
	TouchedAt     time.Time
}

// HasGuest reports whether a guest is bound.
func (r Room) HasGuest() bool {
	return r.GuestID != ""
}

// IsParticipant reports whether playerID is the host or the guest.
func (r Room) IsParticipant(playerID string) bool {
	if playerID == "" {
		return false
	}
	return playerID == r.HostID || playerID == r.GuestID
}

// PendingMatch is delivered to a queued player who was matched by someone else.
type PendingMatch struct {
	RoomID        string
	Topic         string
	Subtopic      string
	Seed          int64
	QuestionCount int
	OpponentName  string
	IsHost        bool
}

// MatchOutcome answers StartOrJoinMatch and PollMatch.
type MatchOutcome struct {
	Matched       bool
	Waiting       bool
	RoomID        string
	Topic         string
	Subtopic      string
	Seed          int64
	QuestionCount int
	OpponentName  string
	IsHost        bool
}

func outcomeFromPending(p PendingMatch) MatchOutcome {
	return MatchOutcome{
		Matched:       true,
		RoomID:        p.RoomID,
		Topic:         p.Topic,
		Subtopic:      p.Subtopic,
		Seed:          p.Seed,
		QuestionCount: p.QuestionCount,
		OpponentName:  p.OpponentName,
		IsHost:        p.IsHost,
	}
}

// RoomParams are the quiz parameters shared by both sides of a room.
type RoomParams struct {
	RoomID        string
	Topic         string
	Subtopic      string
	Seed          int64
	QuestionCount int
	HostName      string
}

func paramsOf(r Room) RoomParams {
	return RoomParams{
		RoomID:        r.ID,
		Topic:         r.Topic,
		Subtopic:      r.Subtopic,
		Seed:          r.Seed,
		QuestionCount: r.QuestionCount,
		HostName:      r.HostName,
	}
}

// OpponentResult is the other side's result as seen by a participant.
type OpponentResult struct {
	ID           string
	Name         string
	Score        int
	CorrectCount int
	Total        int
}

// StatusView is a participant's read of a room.
type StatusView struct {
	RoomParams
	IsHost   bool
	MyResult *Result
	Opponent *OpponentResult
	// Closed is true when this read delivered the opponent result and removed the room.
	Closed bool
}

// ResultInput is a client submission before normalisation.
type ResultInput struct {
	Score        int
	CorrectCount int
	Total        int
}

// normalize clamps negative values to zero and the correct count to the total.
func (in ResultInput) normalize() ResultInput {
	if in.Score < 0 {
		in.Score = 0
	}
	if in.Total < 0 {
		in.Total = 0
	}
	if in.CorrectCount < 0 {
		in.CorrectCount = 0
	}
	if in.Total > 0 && in.CorrectCount > in.Total {
		in.CorrectCount = in.Total
	}
	return in
}

// SubmitResponse is returned to the submitting side. Opponent is nil until both sides submitted.
type SubmitResponse struct {
	RoomID   string
	Opponent *OpponentResult
}
