package model

import "time"

type RoomState string

const (
	RoomWaiting   RoomState = "waiting"
	RoomActive    RoomState = "active"
	RoomCompleted RoomState = "completed"
	RoomExpired   RoomState = "expired"
)

// Open reports whether the room still accepts joins and solves.
func (s RoomState) Open() bool {
	return s == RoomWaiting || s == RoomActive
}

// Terminal reports whether the room has reached a final state.
func (s RoomState) Terminal() bool {
	return s == RoomCompleted || s == RoomExpired
}

type Event string

const (
	Event2x2      Event = "2x2"
	Event3x3      Event = "3x3"
	Event4x4      Event = "4x4"
	Event5x5      Event = "5x5"
	Event3x3OH    Event = "3x3-oh"
	EventPyraminx Event = "pyraminx"
)

type Format string

const (
	FormatSingle Format = "single"
	FormatAo5    Format = "ao5"
	FormatAo12   Format = "ao12"
)

// SolveCount is the number of scrambles a room of this format carries.
func (f Format) SolveCount() int {
	switch f {
	case FormatSingle:
		return 1
	case FormatAo5:
		return 5
	case FormatAo12:
		return 12
	}
	return 0
}

func (f Format) Valid() bool {
	return f.SolveCount() > 0
}

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Room is a code-addressed challenge session. Scrambles are generated once at
// creation and never change; state only moves forward.
type Room struct {
	ID          string     `json:"id" bson:"_id"`
	Code        string     `json:"code" bson:"code"` // stored uppercase
	Name        string     `json:"name" bson:"name"`
	Event       Event      `json:"event" bson:"event"`
	Format      Format     `json:"format" bson:"format"`
	Visibility  Visibility `json:"visibility" bson:"visibility"`
	CreatorID   string     `json:"creatorId" bson:"creatorId"`
	Scrambles   []string   `json:"scrambles" bson:"scrambles"`
	State       RoomState  `json:"state" bson:"state"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	ExpiresAt   time.Time  `json:"expiresAt" bson:"expiresAt"`
	FinalizedAt *time.Time `json:"finalizedAt,omitempty" bson:"finalizedAt,omitempty"`
}

// RoomView is the read model returned to clients. Scrambles are included so
// every participant sees the identical batch.
type RoomView struct {
	ID               string     `json:"roomId"`
	Code             string     `json:"code"`
	Name             string     `json:"name"`
	Event            Event      `json:"event"`
	Format           Format     `json:"format"`
	Visibility       Visibility `json:"visibility"`
	State            RoomState  `json:"state"`
	Scrambles        []string   `json:"scrambles"`
	ParticipantCount int        `json:"participantCount"`
	CreatedAt        time.Time  `json:"createdAt"`
	ExpiresAt        time.Time  `json:"expiresAt"`
}

// RoomMeta is the Redis-cached slice of room state used for fast code lookups.
type RoomMeta struct {
	ID        string    `json:"id"`
	State     RoomState `json:"state"`
	Event     Event     `json:"event"`
	Format    Format    `json:"format"`
	ExpiresAt time.Time `json:"expiresAt"`
}
