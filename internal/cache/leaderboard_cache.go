package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"cuberooms/internal/model"
)

// dnfScore sorts DNF and empty results after any realistic finite time in the
// ZSET. Authoritative ordering (join-order tie-breaks, competition ranks)
// comes from the ranking engine; the ZSET only feeds live pushes.
const dnfScore = float64(1 << 50)

// LeaderboardCache mirrors each room's running results in a Redis ZSET so
// watchers get cheap live ordering between authoritative reads.
type LeaderboardCache interface {
	UpdateResult(ctx context.Context, roomID, userID string, res model.Result) error
	GetTop(ctx context.Context, roomID string, limit int) ([]LiveEntry, error)
	Clear(ctx context.Context, roomID string) error
}

// LiveEntry is one ZSET row of the running leaderboard.
type LiveEntry struct {
	UserID string `json:"userId"`
	TimeMs int64  `json:"timeMs"`
	DNF    bool   `json:"dnf"`
}

type leaderboardCache struct {
	client *redis.Client
}

func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

func (c *leaderboardCache) key(roomID string) string {
	return fmt.Sprintf("room:%s:lb", roomID)
}

func (c *leaderboardCache) UpdateResult(ctx context.Context, roomID, userID string, res model.Result) error {
	score := dnfScore
	if !res.DNF {
		score = float64(res.TimeMs)
	}
	return c.client.ZAdd(ctx, c.key(roomID), redis.Z{
		Score:  score,
		Member: userID,
	}).Err()
}

func (c *leaderboardCache) GetTop(ctx context.Context, roomID string, limit int) ([]LiveEntry, error) {
	results, err := c.client.ZRangeWithScores(ctx, c.key(roomID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LiveEntry, len(results))
	for i, z := range results {
		entry := LiveEntry{UserID: z.Member.(string)}
		if z.Score >= dnfScore {
			entry.DNF = true
		} else {
			entry.TimeMs = int64(z.Score)
		}
		entries[i] = entry
	}
	return entries, nil
}

func (c *leaderboardCache) Clear(ctx context.Context, roomID string) error {
	return c.client.Del(ctx, c.key(roomID)).Err()
}
