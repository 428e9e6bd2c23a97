package service_test

import (
	"context"
	"sync"
	"time"

	"cuberooms/internal/cache"
	"cuberooms/internal/model"
	"cuberooms/internal/repository"
)

// In-memory stand-ins for the Mongo repos and Redis caches. They copy on
// read and write so service code cannot mutate stored state except through
// Update, mirroring a real document store.

type memRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*model.Room

	// completions counts waiting/active -> completed transitions, to assert
	// a room finalizes exactly once under concurrency.
	completions int
}

func newMemRoomRepo() *memRoomRepo {
	return &memRoomRepo{rooms: make(map[string]*model.Room)}
}

func copyRoom(r *model.Room) *model.Room {
	c := *r
	return &c
}

func (m *memRoomRepo) Create(ctx context.Context, room *model.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = copyRoom(room)
	return nil
}

func (m *memRoomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[id]; ok {
		return copyRoom(r), nil
	}
	return nil, nil
}

func (m *memRoomRepo) GetByCode(ctx context.Context, code string) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired *model.Room
	for _, r := range m.rooms {
		if r.Code != code {
			continue
		}
		if r.State != model.RoomExpired {
			return copyRoom(r), nil
		}
		if expired == nil || r.CreatedAt.After(expired.CreatedAt) {
			expired = r
		}
	}
	if expired != nil {
		return copyRoom(expired), nil
	}
	return nil, nil
}

func (m *memRoomRepo) Update(ctx context.Context, room *model.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.rooms[room.ID]; ok {
		if room.State == model.RoomCompleted && prev.State != model.RoomCompleted {
			m.completions++
		}
	}
	m.rooms[room.ID] = copyRoom(room)
	return nil
}

func (m *memRoomRepo) CodeInUse(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		if r.Code == code && r.State != model.RoomExpired {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRoomRepo) FindExpirable(ctx context.Context, now time.Time) ([]*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Room
	for _, r := range m.rooms {
		if r.State.Open() && !r.ExpiresAt.After(now) {
			out = append(out, copyRoom(r))
		}
	}
	return out, nil
}

var _ repository.RoomRepo = (*memRoomRepo)(nil)

type memParticipantRepo struct {
	mu    sync.Mutex
	parts map[string]*model.Participant
}

func newMemParticipantRepo() *memParticipantRepo {
	return &memParticipantRepo{parts: make(map[string]*model.Participant)}
}

func copyParticipant(p *model.Participant) *model.Participant {
	c := *p
	c.Solves = append([]model.Solve(nil), p.Solves...)
	return &c
}

func (m *memParticipantRepo) Create(ctx context.Context, p *model.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parts[p.ID] = copyParticipant(p)
	return nil
}

func (m *memParticipantRepo) Get(ctx context.Context, roomID, userID string) (*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.parts {
		if p.RoomID == roomID && p.UserID == userID {
			return copyParticipant(p), nil
		}
	}
	return nil, nil
}

func (m *memParticipantRepo) ListByRoom(ctx context.Context, roomID string) ([]*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Participant
	for _, p := range m.parts {
		if p.RoomID == roomID {
			out = append(out, copyParticipant(p))
		}
	}
	return out, nil
}

func (m *memParticipantRepo) ListByUser(ctx context.Context, userID string) ([]*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Participant
	for _, p := range m.parts {
		if p.UserID == userID {
			out = append(out, copyParticipant(p))
		}
	}
	return out, nil
}

func (m *memParticipantRepo) CountByRoom(ctx context.Context, roomID string) (int, error) {
	list, _ := m.ListByRoom(ctx, roomID)
	return len(list), nil
}

func (m *memParticipantRepo) Update(ctx context.Context, p *model.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parts[p.ID] = copyParticipant(p)
	return nil
}

var _ repository.ParticipantRepo = (*memParticipantRepo)(nil)

type memRoomCache struct {
	mu    sync.Mutex
	metas map[string]*model.RoomMeta
}

func newMemRoomCache() *memRoomCache {
	return &memRoomCache{metas: make(map[string]*model.RoomMeta)}
}

func (m *memRoomCache) SetMeta(ctx context.Context, code string, meta *model.RoomMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *meta
	m.metas[code] = &c
	return nil
}

func (m *memRoomCache) GetMeta(ctx context.Context, code string) (*model.RoomMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if meta, ok := m.metas[code]; ok {
		c := *meta
		return &c, nil
	}
	return nil, nil
}

func (m *memRoomCache) SetState(ctx context.Context, code string, state model.RoomState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if meta, ok := m.metas[code]; ok {
		meta.State = state
	}
	return nil
}

func (m *memRoomCache) Exists(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.metas[code]
	return ok, nil
}

func (m *memRoomCache) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.metas, code)
	return nil
}

var _ cache.RoomCache = (*memRoomCache)(nil)

type memLeaderboard struct {
	mu      sync.Mutex
	results map[string]map[string]model.Result // roomID -> userID -> result
}

func newMemLeaderboard() *memLeaderboard {
	return &memLeaderboard{results: make(map[string]map[string]model.Result)}
}

func (m *memLeaderboard) UpdateResult(ctx context.Context, roomID, userID string, res model.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.results[roomID] == nil {
		m.results[roomID] = make(map[string]model.Result)
	}
	m.results[roomID][userID] = res
	return nil
}

func (m *memLeaderboard) GetTop(ctx context.Context, roomID string, limit int) ([]cache.LiveEntry, error) {
	return nil, nil
}

func (m *memLeaderboard) Clear(ctx context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.results, roomID)
	return nil
}

var _ cache.LeaderboardCache = (*memLeaderboard)(nil)
