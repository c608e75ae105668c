package duel

import "errors"

// Terminal duel errors surfaced directly to callers; none of them is retried.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrForbidden    = errors.New("caller is not a participant of this room")
	ErrRoomFull     = errors.New("room already has a guest")
	ErrSameUser     = errors.New("host cannot join their own room")
	ErrInvalidInput = errors.New("invalid input")
	ErrRoomIDSpace  = errors.New("could not allocate a unique room id")
)
