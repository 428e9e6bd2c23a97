package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cuberooms/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, "cuberooms", cfg.MongoDB)
	assert.Equal(t, 24*time.Hour, cfg.RoomTTL)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ROOM_TTL", "90m")
	t.Setenv("SWEEP_INTERVAL", "15m")
	t.Setenv("PORT", "9090")

	cfg := config.Load()

	assert.Equal(t, 90*time.Minute, cfg.RoomTTL)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.Equal(t, "9090", cfg.Port)
}

func TestLoadIgnoresBadDuration(t *testing.T) {
	t.Setenv("ROOM_TTL", "not-a-duration")

	cfg := config.Load()
	assert.Equal(t, 24*time.Hour, cfg.RoomTTL)
}
