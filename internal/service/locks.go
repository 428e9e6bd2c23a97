package service

import "sync"

// RoomLocks serializes mutating operations per room. Rooms are independent,
// so there is one mutex per room id rather than a global lock; submit,
// force-expire and close for the same room never interleave.
type RoomLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRoomLocks() *RoomLocks {
	return &RoomLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the room's mutex and returns its unlock func.
func (l *RoomLocks) Lock(roomID string) func() {
	l.mu.Lock()
	m, ok := l.locks[roomID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[roomID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
