package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cuberooms/internal/cache"
	"cuberooms/internal/model"
	"cuberooms/internal/ranking"
	"cuberooms/internal/repository"
	"cuberooms/internal/scramble"
)

// RoomService owns the room lifecycle state machine: creation, creator
// force-start/force-close, forced expiration and the periodic sweep.
type RoomService struct {
	roomRepo    repository.RoomRepo
	partRepo    repository.ParticipantRepo
	roomCache   cache.RoomCache
	leaderboard cache.LeaderboardCache
	scrambles   *scramble.Provider
	locks       *RoomLocks
	broadcaster Broadcaster
	ttl         time.Duration
	log         *logrus.Entry

	// codeMu serializes code allocation only; room operations stay
	// independent of each other.
	codeMu sync.Mutex

	now func() time.Time
}

func NewRoomService(
	roomRepo repository.RoomRepo,
	partRepo repository.ParticipantRepo,
	roomCache cache.RoomCache,
	leaderboard cache.LeaderboardCache,
	scrambles *scramble.Provider,
	locks *RoomLocks,
	ttl time.Duration,
	logger *logrus.Logger,
) *RoomService {
	return &RoomService{
		roomRepo:    roomRepo,
		partRepo:    partRepo,
		roomCache:   roomCache,
		leaderboard: leaderboard,
		scrambles:   scrambles,
		locks:       locks,
		broadcaster: NopBroadcaster{},
		ttl:         ttl,
		log:         logger.WithField("component", "room_service"),
		now:         time.Now,
	}
}

// SetBroadcaster wires the live-update transport.
func (s *RoomService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// CreateRoom allocates a code, generates the full scramble batch and persists
// the room in the waiting state. The batch is fixed for the room's lifetime:
// every participant solves exactly these scrambles.
func (s *RoomService) CreateRoom(ctx context.Context, creatorID, name string, event model.Event, format model.Format, visibility model.Visibility) (*model.Room, error) {
	if !scramble.Supported(event) {
		return nil, ErrInvalidEvent
	}
	if !format.Valid() {
		return nil, ErrInvalidFormat
	}
	if visibility == "" {
		visibility = model.VisibilityPublic
	}
	if !visibility.Valid() {
		return nil, ErrInvalidVisibility
	}

	batch, err := s.scrambles.Batch(ctx, event, format.SolveCount())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScrambleGeneration, err)
	}

	s.codeMu.Lock()
	defer s.codeMu.Unlock()

	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	room := &model.Room{
		ID:         uuid.NewString(),
		Code:       code,
		Name:       name,
		Event:      event,
		Format:     format,
		Visibility: visibility,
		CreatorID:  creatorID,
		Scrambles:  batch,
		State:      model.RoomWaiting,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("persisting room: %w", err)
	}

	meta := &model.RoomMeta{
		ID:        room.ID,
		State:     room.State,
		Event:     room.Event,
		Format:    room.Format,
		ExpiresAt: room.ExpiresAt,
	}
	if err := s.roomCache.SetMeta(ctx, code, meta); err != nil {
		// Creation already committed; the cache heals on the next lookup.
		s.log.WithError(err).WithField("room", room.ID).Warn("failed to cache room meta")
	}

	s.log.WithFields(logrus.Fields{
		"room":   room.ID,
		"code":   code,
		"event":  event,
		"format": format,
	}).Info("room created")

	return room, nil
}

// ValidateCode reports whether any room, expired included, holds the code.
func (s *RoomService) ValidateCode(ctx context.Context, code string) (bool, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return false, err
	}

	if cached, err := s.roomCache.Exists(ctx, code); err == nil && cached {
		return true, nil
	}

	room, err := s.roomRepo.GetByCode(ctx, code)
	if err != nil {
		return false, err
	}
	return room != nil, nil
}

// GetRoomView resolves a room by join code or by id and returns its read
// model. Private rooms resolve by exact code like public ones: possessing the
// code is the authorization.
func (s *RoomService) GetRoomView(ctx context.Context, codeOrID string) (*model.RoomView, error) {
	room, err := s.resolve(ctx, codeOrID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	count, err := s.partRepo.CountByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	return &model.RoomView{
		ID:               room.ID,
		Code:             room.Code,
		Name:             room.Name,
		Event:            room.Event,
		Format:           room.Format,
		Visibility:       room.Visibility,
		State:            room.State,
		Scrambles:        room.Scrambles,
		ParticipantCount: count,
		CreatedAt:        room.CreatedAt,
		ExpiresAt:        room.ExpiresAt,
	}, nil
}

// StartRoom is the creator's explicit waiting→active transition. Starting an
// already active room is a no-op.
func (s *RoomService) StartRoom(ctx context.Context, roomID, userID string) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}
	if room.CreatorID != userID {
		return ErrNotCreator
	}
	if room.State == model.RoomActive {
		return nil
	}
	if room.State != model.RoomWaiting {
		return ErrRoomClosed
	}

	return s.transition(ctx, room, model.RoomActive)
}

// CloseRoom is the creator's force-close: the room finalizes as completed
// with whatever solves exist.
func (s *RoomService) CloseRoom(ctx context.Context, roomID, userID string) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}
	if room.CreatorID != userID {
		return ErrNotCreator
	}
	if room.State.Terminal() {
		return ErrRoomClosed
	}

	return s.finalizeLocked(ctx, room, model.RoomCompleted)
}

// ForceExpire moves a room to expired from any non-terminal state, ranking
// whatever solves exist. Expiring an already terminal room is a no-op so the
// sweeper stays idempotent.
func (s *RoomService) ForceExpire(ctx context.Context, roomID string) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}
	if room.State.Terminal() {
		return nil
	}

	return s.finalizeLocked(ctx, room, model.RoomExpired)
}

// Sweep expires every open room past its deadline. One room failing to
// expire is logged and skipped; the next scheduled run retries it.
func (s *RoomService) Sweep(ctx context.Context) (int, error) {
	rooms, err := s.roomRepo.FindExpirable(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("querying expirable rooms: %w", err)
	}

	expired := 0
	for _, room := range rooms {
		if err := s.ForceExpire(ctx, room.ID); err != nil {
			s.log.WithError(err).WithField("room", room.ID).Error("sweep: failed to expire room")
			continue
		}
		expired++
	}

	if expired > 0 {
		s.log.WithField("count", expired).Info("sweep expired rooms")
	}
	return expired, nil
}

// CompleteIfDone finalizes the room as completed when every current
// participant has finished all scrambles. Callers hold the room lock.
func (s *RoomService) CompleteIfDone(ctx context.Context, room *model.Room) (bool, error) {
	participants, err := s.partRepo.ListByRoom(ctx, room.ID)
	if err != nil {
		return false, err
	}
	if len(participants) == 0 {
		return false, nil
	}

	total := room.Format.SolveCount()
	for _, p := range participants {
		if !p.Finished(total) {
			return false, nil
		}
	}

	if err := s.finalizeLocked(ctx, room, model.RoomCompleted); err != nil {
		return false, err
	}
	return true, nil
}

// finalizeLocked assigns final results and ranks to all current participants
// and moves the room to its terminal state. Ranks are immutable afterwards.
func (s *RoomService) finalizeLocked(ctx context.Context, room *model.Room, state model.RoomState) error {
	participants, err := s.partRepo.ListByRoom(ctx, room.ID)
	if err != nil {
		return fmt.Errorf("listing participants: %w", err)
	}

	standings := ranking.Finalize(participants, room.Format)
	for i := range standings {
		p := standings[i].Participant
		res := standings[i].Result
		rank := standings[i].Rank
		p.FinalResult = &res
		p.FinalRank = &rank
		if err := s.partRepo.Update(ctx, p); err != nil {
			return fmt.Errorf("finalizing participant %s: %w", p.ID, err)
		}
	}

	now := s.now()
	room.State = state
	room.FinalizedAt = &now
	if err := s.roomRepo.Update(ctx, room); err != nil {
		return fmt.Errorf("updating room state: %w", err)
	}
	if err := s.roomCache.SetState(ctx, room.Code, state); err != nil {
		s.log.WithError(err).WithField("room", room.ID).Warn("failed to update cached state")
	}

	// The live board only serves open rooms; the ZSET has no TTL, so drop it
	// here or it outlives the room.
	if err := s.leaderboard.Clear(ctx, room.ID); err != nil {
		s.log.WithError(err).WithField("room", room.ID).Warn("failed to clear live leaderboard")
	}

	s.log.WithFields(logrus.Fields{
		"room":         room.ID,
		"state":        state,
		"participants": len(participants),
	}).Info("room finalized")

	s.broadcaster.BroadcastRoom(room.ID, "room_finalized", leaderboardRows(standings, true))
	return nil
}

// transition applies a non-terminal state change and mirrors it to the cache.
func (s *RoomService) transition(ctx context.Context, room *model.Room, state model.RoomState) error {
	room.State = state
	if err := s.roomRepo.Update(ctx, room); err != nil {
		return fmt.Errorf("updating room state: %w", err)
	}
	if err := s.roomCache.SetState(ctx, room.Code, state); err != nil {
		s.log.WithError(err).WithField("room", room.ID).Warn("failed to update cached state")
	}
	s.broadcaster.BroadcastRoom(room.ID, "room_state", map[string]model.RoomState{"state": state})
	return nil
}

// resolve treats 6-char strings as join codes and anything else as a room id.
func (s *RoomService) resolve(ctx context.Context, codeOrID string) (*model.Room, error) {
	if code, err := NormalizeCode(codeOrID); err == nil {
		room, err := s.roomRepo.GetByCode(ctx, code)
		if err != nil || room != nil {
			return room, err
		}
	}
	return s.roomRepo.GetByID(ctx, codeOrID)
}

// leaderboardRows renders standings for broadcast and read endpoints.
func leaderboardRows(standings []ranking.Standing, final bool) []model.LeaderboardRow {
	rows := make([]model.LeaderboardRow, len(standings))
	for i, st := range standings {
		row := model.LeaderboardRow{
			UserID:          st.Participant.UserID,
			Result:          st.Result,
			SolvesCompleted: len(st.Participant.Solves),
		}
		if final {
			rank := st.Rank
			if st.Participant.FinalRank != nil {
				rank = *st.Participant.FinalRank
			}
			row.Rank = &rank
		}
		rows[i] = row
	}
	return rows
}
