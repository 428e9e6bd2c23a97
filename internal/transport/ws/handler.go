package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"cuberooms/internal/cache"
	"cuberooms/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced at the REST layer
	},
}

// Handler upgrades watch connections for a room.
type Handler struct {
	hub         *Hub
	roomSvc     *service.RoomService
	leaderboard cache.LeaderboardCache
}

func NewHandler(hub *Hub, roomSvc *service.RoomService, leaderboard cache.LeaderboardCache) *Handler {
	return &Handler{
		hub:         hub,
		roomSvc:     roomSvc,
		leaderboard: leaderboard,
	}
}

// RoomWS handles GET /v1/ws/rooms/{id}. Watching is read-only, so it needs
// no token; knowing the room id or code is the authorization, as for reads.
func (h *Handler) RoomWS(w http.ResponseWriter, r *http.Request) {
	codeOrID := mux.Vars(r)["id"]

	view, err := h.roomSvc.GetRoomView(r.Context(), codeOrID)
	if err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	conn := &Connection{
		RoomID: view.ID,
		Send:   make(chan []byte, 256),
		Hub:    h.hub,
	}

	h.hub.Register(conn)

	// Greet the watcher with the current running order so they don't wait
	// for the next solve to see the board.
	if entries, err := h.leaderboard.GetTop(r.Context(), view.ID, 50); err == nil && len(entries) > 0 {
		if payload, err := json.Marshal(entries); err == nil {
			data, _ := json.Marshal(&Message{Type: MsgLeaderboardSnapshot, Payload: payload})
			conn.Send <- data
		}
	}

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Debug("websocket read error")
			}
			break
		}
		// Watchers are read-only; incoming frames are ignored.
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
