package model

import "time"

type Penalty string

const (
	PenaltyNone  Penalty = "none"
	PenaltyPlus2 Penalty = "plus2"
	PenaltyDNF   Penalty = "dnf"
)

func (p Penalty) Valid() bool {
	return p == PenaltyNone || p == PenaltyPlus2 || p == PenaltyDNF
}

// Solve is one attempt against the scramble at ScrambleIndex. Solves are
// append-only and index-aligned with the room's scramble list.
type Solve struct {
	ScrambleIndex int     `json:"scrambleIndex" bson:"scrambleIndex"`
	TimeMs        int64   `json:"timeMs" bson:"timeMs"`
	Penalty       Penalty `json:"penalty" bson:"penalty"`
}

// EffectiveMs returns the counting time in milliseconds and whether the
// attempt counts at all. A +2 adds two seconds; a DNF never counts.
func (s Solve) EffectiveMs() (int64, bool) {
	switch s.Penalty {
	case PenaltyPlus2:
		return s.TimeMs + 2000, true
	case PenaltyDNF:
		return 0, false
	}
	return s.TimeMs, true
}

// Result is a comparable outcome under the room's format. Provisional results
// are best-so-far placeholders while an average is still being assembled.
type Result struct {
	TimeMs      int64 `json:"timeMs" bson:"timeMs"`
	DNF         bool  `json:"dnf" bson:"dnf"`
	Provisional bool  `json:"provisional" bson:"provisional"`
}

// Better reports whether r beats o. DNF sorts after every finite time.
func (r Result) Better(o Result) bool {
	if r.DNF != o.DNF {
		return !r.DNF
	}
	if r.DNF {
		return false
	}
	return r.TimeMs < o.TimeMs
}

// Ties reports an exact millisecond tie between two finite results.
func (r Result) Ties(o Result) bool {
	return !r.DNF && !o.DNF && r.TimeMs == o.TimeMs
}

// Participant is one user's membership in one room. The (RoomID, UserID) pair
// is unique; FinalResult and FinalRank are set once at room finalization and
// never change afterwards.
type Participant struct {
	ID          string    `json:"id" bson:"_id"`
	RoomID      string    `json:"roomId" bson:"roomId"`
	UserID      string    `json:"userId" bson:"userId"`
	JoinedAt    time.Time `json:"joinedAt" bson:"joinedAt"`
	Solves      []Solve   `json:"solves" bson:"solves"`
	FinalResult *Result   `json:"finalResult,omitempty" bson:"finalResult,omitempty"`
	FinalRank   *int      `json:"finalRank,omitempty" bson:"finalRank,omitempty"`
}

// Finished reports whether the participant has solved every scramble.
func (p *Participant) Finished(total int) bool {
	return len(p.Solves) >= total
}

// LeaderboardRow is one line of a room leaderboard. Rank stays null until the
// room is completed or expired.
type LeaderboardRow struct {
	UserID          string `json:"userId"`
	Rank            *int   `json:"rank"`
	Result          Result `json:"result"`
	SolvesCompleted int    `json:"solvesCompleted"`
}

// ParticipationView is one entry of a user's cross-room history.
type ParticipationView struct {
	RoomID   string    `json:"roomId"`
	Code     string    `json:"code"`
	Name     string    `json:"name"`
	Event    Event     `json:"event"`
	Format   Format    `json:"format"`
	State    RoomState `json:"state"`
	JoinedAt time.Time `json:"joinedAt"`
	Result   *Result   `json:"result,omitempty"`
	Rank     *int      `json:"rank,omitempty"`
}
