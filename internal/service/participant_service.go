package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cuberooms/internal/cache"
	"cuberooms/internal/model"
	"cuberooms/internal/ranking"
	"cuberooms/internal/repository"
)

// SubmitOutcome is the response to an accepted solve.
type SubmitOutcome struct {
	Accepted      bool            `json:"accepted"`
	RunningResult model.Result    `json:"runningResult"`
	RoomState     model.RoomState `json:"roomState"`
}

// ParticipantService orchestrates joins and solve submissions. All mutations
// for a room run under that room's lock, shared with RoomService, so a
// submission cannot race a forced expiration or another submission into a
// double finalization.
type ParticipantService struct {
	partRepo    repository.ParticipantRepo
	roomRepo    repository.RoomRepo
	leaderboard cache.LeaderboardCache
	rooms       *RoomService
	locks       *RoomLocks
	broadcaster Broadcaster
	log         *logrus.Entry

	now func() time.Time
}

func NewParticipantService(
	partRepo repository.ParticipantRepo,
	roomRepo repository.RoomRepo,
	leaderboard cache.LeaderboardCache,
	rooms *RoomService,
	locks *RoomLocks,
	logger *logrus.Logger,
) *ParticipantService {
	return &ParticipantService{
		partRepo:    partRepo,
		roomRepo:    roomRepo,
		leaderboard: leaderboard,
		rooms:       rooms,
		locks:       locks,
		broadcaster: NopBroadcaster{},
		log:         logger.WithField("component", "participant_service"),
		now:         time.Now,
	}
}

// SetBroadcaster wires the live-update transport.
func (s *ParticipantService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// JoinRoom adds a user to an open room found by code. A user joins a room at
// most once; joining never promotes the room to active, only the first solve
// does.
func (s *ParticipantService) JoinRoom(ctx context.Context, code, userID string) (*model.Participant, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}

	room, err := s.roomRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("looking up room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	unlock := s.locks.Lock(room.ID)
	defer unlock()

	// Re-read under the lock so a concurrent finalization is observed.
	room, err = s.roomRepo.GetByID(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if !room.State.Open() {
		return nil, ErrRoomClosed
	}

	existing, err := s.partRepo.Get(ctx, room.ID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyJoined
	}

	participant := &model.Participant{
		ID:       uuid.NewString(),
		RoomID:   room.ID,
		UserID:   userID,
		JoinedAt: s.now(),
		Solves:   []model.Solve{},
	}
	if err := s.partRepo.Create(ctx, participant); err != nil {
		return nil, fmt.Errorf("persisting participant: %w", err)
	}

	// Seed the live board; a zero-solve participant sorts last.
	if err := s.leaderboard.UpdateResult(ctx, room.ID, userID, model.Result{DNF: true, Provisional: true}); err != nil {
		s.log.WithError(err).WithField("room", room.ID).Warn("failed to seed leaderboard entry")
	}

	s.log.WithFields(logrus.Fields{
		"room": room.ID,
		"user": userID,
	}).Info("participant joined")

	s.broadcaster.BroadcastRoom(room.ID, "participant_joined", map[string]string{"userId": userID})
	return participant, nil
}

// SubmitSolve appends the next solve for a participant. Solves arrive in
// scramble order: the index must equal the number of solves already recorded,
// which keeps the i-th solve aligned with the i-th scramble. The first
// accepted solve promotes a waiting room to active; the last solve of the
// last unfinished participant completes the room and freezes final ranks.
func (s *ParticipantService) SubmitSolve(ctx context.Context, roomID, userID string, scrambleIndex int, timeMs int64, penalty model.Penalty) (*SubmitOutcome, error) {
	if penalty == "" {
		penalty = model.PenaltyNone
	}
	if !penalty.Valid() {
		return nil, ErrInvalidPenalty
	}
	if timeMs <= 0 && penalty != model.PenaltyDNF {
		return nil, ErrInvalidSolveTime
	}
	if timeMs < 0 {
		return nil, ErrInvalidSolveTime
	}

	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if !room.State.Open() {
		return nil, ErrRoomClosed
	}

	participant, err := s.partRepo.Get(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		return nil, ErrNotAParticipant
	}

	if scrambleIndex != len(participant.Solves) || scrambleIndex >= len(room.Scrambles) {
		return nil, ErrOutOfOrder
	}

	participant.Solves = append(participant.Solves, model.Solve{
		ScrambleIndex: scrambleIndex,
		TimeMs:        timeMs,
		Penalty:       penalty,
	})
	running := ranking.Compute(participant.Solves, room.Format)

	if err := s.partRepo.Update(ctx, participant); err != nil {
		return nil, fmt.Errorf("persisting solve: %w", err)
	}

	if room.State == model.RoomWaiting {
		if err := s.rooms.transition(ctx, room, model.RoomActive); err != nil {
			return nil, err
		}
	}

	if err := s.leaderboard.UpdateResult(ctx, roomID, userID, running); err != nil {
		s.log.WithError(err).WithField("room", roomID).Warn("failed to update live leaderboard")
	}

	if participant.Finished(room.Format.SolveCount()) {
		completed, err := s.rooms.CompleteIfDone(ctx, room)
		if err != nil {
			return nil, err
		}
		if completed {
			return &SubmitOutcome{Accepted: true, RunningResult: running, RoomState: room.State}, nil
		}
	}

	s.broadcaster.BroadcastRoom(roomID, "leaderboard_update", model.LeaderboardRow{
		UserID:          userID,
		Result:          running,
		SolvesCompleted: len(participant.Solves),
	})

	return &SubmitOutcome{Accepted: true, RunningResult: running, RoomState: room.State}, nil
}

// Leaderboard returns a consistent snapshot of the room's standings. Ranks
// stay null until the room reaches a terminal state.
func (s *ParticipantService) Leaderboard(ctx context.Context, roomID string) ([]model.LeaderboardRow, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	participants, err := s.partRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	standings := ranking.Standings(participants, room.Format)
	return leaderboardRows(standings, room.State.Terminal()), nil
}

// UserHistory lists a user's participations across rooms, newest first.
func (s *ParticipantService) UserHistory(ctx context.Context, userID string) ([]model.ParticipationView, error) {
	participations, err := s.partRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]model.ParticipationView, 0, len(participations))
	for _, p := range participations {
		room, err := s.roomRepo.GetByID(ctx, p.RoomID)
		if err != nil {
			return nil, err
		}
		if room == nil {
			continue
		}
		view := model.ParticipationView{
			RoomID:   room.ID,
			Code:     room.Code,
			Name:     room.Name,
			Event:    room.Event,
			Format:   room.Format,
			State:    room.State,
			JoinedAt: p.JoinedAt,
			Result:   p.FinalResult,
			Rank:     p.FinalRank,
		}
		if view.Result == nil && len(p.Solves) > 0 {
			running := ranking.Compute(p.Solves, room.Format)
			view.Result = &running
		}
		out = append(out, view)
	}
	return out, nil
}
