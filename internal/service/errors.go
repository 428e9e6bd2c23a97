package service

import "errors"

// Sentinel errors surfaced to transport. Handlers map these to HTTP statuses;
// anything else is treated as an infrastructure failure.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomClosed        = errors.New("room is closed")
	ErrAlreadyJoined     = errors.New("user already joined this room")
	ErrNotAParticipant   = errors.New("user is not a participant of this room")
	ErrOutOfOrder        = errors.New("solve index out of order")
	ErrNotCreator        = errors.New("only the room creator may do this")
	ErrInvalidEvent      = errors.New("unsupported event")
	ErrInvalidFormat     = errors.New("unsupported format")
	ErrInvalidVisibility = errors.New("unsupported visibility")
	ErrInvalidPenalty    = errors.New("invalid penalty")
	ErrInvalidSolveTime  = errors.New("invalid solve time")
	ErrInvalidCode       = errors.New("malformed room code")

	// ErrCodeExhausted means repeated collisions against a practically
	// collision-free code space: a deployment problem, not user input.
	ErrCodeExhausted = errors.New("could not allocate a unique room code")

	ErrScrambleGeneration = errors.New("scramble generation failed")
)
