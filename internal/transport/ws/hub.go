package ws

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// MessageType defines the type of WebSocket message.
type MessageType string

const (
	MsgParticipantJoined   MessageType = "participant_joined"
	MsgLeaderboardUpdate   MessageType = "leaderboard_update"
	MsgLeaderboardSnapshot MessageType = "leaderboard_snapshot"
	MsgRoomState           MessageType = "room_state"
	MsgRoomFinalized       MessageType = "room_finalized"
)

// Message is the WebSocket envelope format.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans room events out to everyone watching a room. Delivery is best
// effort: a slow consumer's messages are dropped, never the room state.
type Hub struct {
	watchers map[string]map[*Connection]struct{} // roomID -> conns

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage

	log *logrus.Entry
}

// Connection represents one watcher of one room.
type Connection struct {
	RoomID string
	Send   chan []byte
	Hub    *Hub
}

// BroadcastMessage is a message addressed to a room's watchers.
type BroadcastMessage struct {
	RoomID  string
	Message *Message
}

func NewHub(logger *logrus.Logger) *Hub {
	h := &Hub{
		watchers:   make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		log:        logger.WithField("component", "ws_hub"),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.watchers[conn.RoomID] == nil {
				h.watchers[conn.RoomID] = make(map[*Connection]struct{})
			}
			h.watchers[conn.RoomID][conn] = struct{}{}
			h.mu.Unlock()
			h.log.WithField("room", conn.RoomID).Debug("watcher connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.watchers[conn.RoomID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.watchers, conn.RoomID)
					}
				}
			}
			h.mu.Unlock()
			h.log.WithField("room", conn.RoomID).Debug("watcher disconnected")

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for conn := range h.watchers[msg.RoomID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a watcher.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a watcher.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastRoom implements service.Broadcaster.
func (h *Hub) BroadcastRoom(roomID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		RoomID: roomID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}
