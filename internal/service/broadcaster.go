package service

// Broadcaster pushes room events to connected watchers (avoids an import
// cycle with the ws transport). Delivery is best effort; reads against the
// store stay authoritative.
type Broadcaster interface {
	BroadcastRoom(roomID string, msgType string, payload interface{})
}

// NopBroadcaster is used when no delivery transport is wired.
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastRoom(string, string, interface{}) {}
