package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cuberooms/internal/model"
	"cuberooms/internal/scramble"
	"cuberooms/internal/service"
)

type env struct {
	rooms *memRoomRepo
	parts *memParticipantRepo
	cache *memRoomCache
	lb    *memLeaderboard
	roomS *service.RoomService
	partS *service.ParticipantService
}

func newEnv(t *testing.T, ttl time.Duration) *env {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	rooms := newMemRoomRepo()
	parts := newMemParticipantRepo()
	rc := newMemRoomCache()
	lb := newMemLeaderboard()
	locks := service.NewRoomLocks()
	provider := scramble.NewProvider(scramble.NewMoveGenerator())

	roomS := service.NewRoomService(rooms, parts, rc, lb, provider, locks, ttl, logger)
	partS := service.NewParticipantService(parts, rooms, lb, roomS, locks, logger)

	return &env{rooms: rooms, parts: parts, cache: rc, lb: lb, roomS: roomS, partS: partS}
}

func TestCreateRoom(t *testing.T) {
	e := newEnv(t, time.Hour)
	ctx := context.Background()

	room, err := e.roomS.CreateRoom(ctx, "u_creator", "Friday ao5", model.Event3x3, model.FormatAo5, model.VisibilityPublic)
	require.NoError(t, err)

	assert.Len(t, room.Code, 6)
	assert.Equal(t, model.RoomWaiting, room.State)
	assert.Len(t, room.Scrambles, 5)
	assert.Equal(t, "u_creator", room.CreatorID)
	assert.Equal(t, room.CreatedAt.Add(time.Hour), room.ExpiresAt)

	// Creation caches the meta for fast code checks.
	exists, err := e.cache.Exists(ctx, room.Code)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateRoomValidation(t *testing.T) {
	e := newEnv(t, time.Hour)
	ctx := context.Background()

	_, err := e.roomS.CreateRoom(ctx, "u", "x", model.Event("megaminx"), model.FormatAo5, model.VisibilityPublic)
	assert.ErrorIs(t, err, service.ErrInvalidEvent)

	_, err = e.roomS.CreateRoom(ctx, "u", "x", model.Event3x3, model.Format("mo3"), model.VisibilityPublic)
	assert.ErrorIs(t, err, service.ErrInvalidFormat)

	_, err = e.roomS.CreateRoom(ctx, "u", "x", model.Event3x3, model.FormatSingle, model.Visibility("secret"))
	assert.ErrorIs(t, err, service.ErrInvalidVisibility)
}

func TestValidateCode(t *testing.T) {
	e := newEnv(t, time.Hour)
	ctx := context.Background()

	room, err := e.roomS.CreateRoom(ctx, "u", "x", model.Event3x3, model.FormatSingle, model.VisibilityPrivate)
	require.NoError(t, err)

	// Case-insensitive.
	exists, err := e.roomS.ValidateCode(ctx, room.Code)
	require.NoError(t, err)
	assert.True(t, exists)

	lower := []byte(room.Code)
	for i, c := range lower {
		if c >= 'A' && c <= 'Z' {
			lower[i] = c + 'a' - 'A'
		}
	}
	exists, err = e.roomS.ValidateCode(ctx, string(lower))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = e.roomS.ValidateCode(ctx, "ZZZZZZ")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = e.roomS.ValidateCode(ctx, "nope")
	assert.ErrorIs(t, err, service.ErrInvalidCode)
}

func TestValidateCodeSurvivesExpiration(t *testing.T) {
	e := newEnv(t, -time.Minute) // already past deadline
	ctx := context.Background()

	room, err := e.roomS.CreateRoom(ctx, "u", "x", model.Event3x3, model.FormatSingle, model.VisibilityPublic)
	require.NoError(t, err)

	n, err := e.roomS.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Expiration is a state, not deletion: the code still resolves...
	e.cache.Delete(ctx, room.Code) // force the store lookup path
	exists, err := e.roomS.ValidateCode(ctx, room.Code)
	require.NoError(t, err)
	assert.True(t, exists)

	// ...but joining is rejected.
	_, err = e.partS.JoinRoom(ctx, room.Code, "u_late")
	assert.ErrorIs(t, err, service.ErrRoomClosed)
}

func TestSweepIsIdempotent(t *testing.T) {
	e := newEnv(t, -time.Minute)
	ctx := context.Background()

	r1, err := e.roomS.CreateRoom(ctx, "u", "one", model.Event3x3, model.FormatAo5, model.VisibilityPublic)
	require.NoError(t, err)
	_, err = e.roomS.CreateRoom(ctx, "u", "two", model.Event2x2, model.FormatSingle, model.VisibilityPublic)
	require.NoError(t, err)

	_, err = e.partS.JoinRoom(ctx, r1.Code, "u_a")
	require.NoError(t, err)
	_, err = e.partS.SubmitSolve(ctx, r1.ID, "u_a", 0, 12000, model.PenaltyNone)
	require.NoError(t, err)

	n, err := e.roomS.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = e.roomS.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := e.rooms.GetByID(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoomExpired, got.State)
}

func TestForceExpireRanksPartialResults(t *testing.T) {
	e := newEnv(t, time.Hour)
	ctx := context.Background()

	room, err := e.roomS.CreateRoom(ctx, "u", "x", model.Event3x3, model.FormatAo5, model.VisibilityPublic)
	require.NoError(t, err)

	_, err = e.partS.JoinRoom(ctx, room.Code, "u_fast")
	require.NoError(t, err)
	_, err = e.partS.JoinRoom(ctx, room.Code, "u_idle")
	require.NoError(t, err)

	_, err = e.partS.SubmitSolve(ctx, room.ID, "u_fast", 0, 9000, model.PenaltyNone)
	require.NoError(t, err)

	require.NoError(t, e.roomS.ForceExpire(ctx, room.ID))

	fast, err := e.parts.Get(ctx, room.ID, "u_fast")
	require.NoError(t, err)
	idle, err := e.parts.Get(ctx, room.ID, "u_idle")
	require.NoError(t, err)

	// Partial results are ranked; the zero-solve participant ranks last.
	require.NotNil(t, fast.FinalRank)
	require.NotNil(t, idle.FinalRank)
	assert.Equal(t, 1, *fast.FinalRank)
	assert.Equal(t, 2, *idle.FinalRank)
	require.NotNil(t, fast.FinalResult)
	assert.True(t, fast.FinalResult.Provisional)
	assert.True(t, idle.FinalResult.DNF)

	// Idempotent on a terminal room.
	require.NoError(t, e.roomS.ForceExpire(ctx, room.ID))
}

func TestStartAndCloseRequireCreator(t *testing.T) {
	e := newEnv(t, time.Hour)
	ctx := context.Background()

	room, err := e.roomS.CreateRoom(ctx, "u_creator", "x", model.Event3x3, model.FormatSingle, model.VisibilityPublic)
	require.NoError(t, err)

	assert.ErrorIs(t, e.roomS.StartRoom(ctx, room.ID, "u_other"), service.ErrNotCreator)
	assert.ErrorIs(t, e.roomS.CloseRoom(ctx, room.ID, "u_other"), service.ErrNotCreator)

	require.NoError(t, e.roomS.StartRoom(ctx, room.ID, "u_creator"))
	got, _ := e.rooms.GetByID(ctx, room.ID)
	assert.Equal(t, model.RoomActive, got.State)

	// Starting twice is a no-op.
	require.NoError(t, e.roomS.StartRoom(ctx, room.ID, "u_creator"))

	require.NoError(t, e.roomS.CloseRoom(ctx, room.ID, "u_creator"))
	got, _ = e.rooms.GetByID(ctx, room.ID)
	assert.Equal(t, model.RoomCompleted, got.State)

	assert.ErrorIs(t, e.roomS.CloseRoom(ctx, room.ID, "u_creator"), service.ErrRoomClosed)
}

type collidingRoomRepo struct {
	*memRoomRepo
}

func (c *collidingRoomRepo) CodeInUse(ctx context.Context, code string) (bool, error) {
	return true, nil
}

func TestCreateRoomCodeExhaustion(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	rooms := &collidingRoomRepo{newMemRoomRepo()}
	locks := service.NewRoomLocks()
	provider := scramble.NewProvider(scramble.NewMoveGenerator())
	roomS := service.NewRoomService(rooms, newMemParticipantRepo(), newMemRoomCache(), newMemLeaderboard(), provider, locks, time.Hour, logger)

	_, err := roomS.CreateRoom(context.Background(), "u", "x", model.Event3x3, model.FormatSingle, model.VisibilityPublic)
	assert.ErrorIs(t, err, service.ErrCodeExhausted)
}

func TestGetRoomViewByCodeAndID(t *testing.T) {
	e := newEnv(t, time.Hour)
	ctx := context.Background()

	room, err := e.roomS.CreateRoom(ctx, "u", "view me", model.Event4x4, model.FormatAo5, model.VisibilityPrivate)
	require.NoError(t, err)
	_, err = e.partS.JoinRoom(ctx, room.Code, "u_a")
	require.NoError(t, err)

	byCode, err := e.roomS.GetRoomView(ctx, room.Code)
	require.NoError(t, err)
	byID, err := e.roomS.GetRoomView(ctx, room.ID)
	require.NoError(t, err)

	assert.Equal(t, byCode, byID)
	assert.Equal(t, 1, byCode.ParticipantCount)
	assert.Equal(t, room.Scrambles, byCode.Scrambles)

	_, err = e.roomS.GetRoomView(ctx, "does-not-exist")
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
}
