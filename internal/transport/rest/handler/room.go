package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"cuberooms/internal/model"
	"cuberooms/internal/service"
	"cuberooms/internal/transport/rest/middleware"
)

// RoomHandler handles room lifecycle endpoints.
type RoomHandler struct {
	roomSvc *service.RoomService
	partSvc *service.ParticipantService
}

func NewRoomHandler(roomSvc *service.RoomService, partSvc *service.ParticipantService) *RoomHandler {
	return &RoomHandler{
		roomSvc: roomSvc,
		partSvc: partSvc,
	}
}

// CreateRoomRequest is the request body for creating a room.
type CreateRoomRequest struct {
	Name       string           `json:"name"`
	Event      model.Event      `json:"event"`
	Format     model.Format     `json:"format"`
	Visibility model.Visibility `json:"visibility"`
}

// Create handles POST /v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := h.roomSvc.CreateRoom(r.Context(), userID, req.Name, req.Event, req.Format, req.Visibility)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"roomId": room.ID,
		"code":   room.Code,
	})
}

// Get handles GET /v1/rooms/{code} — the path segment is a join code or a
// room id.
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	codeOrID := mux.Vars(r)["code"]

	view, err := h.roomSvc.GetRoomView(r.Context(), codeOrID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Validate handles GET /v1/rooms/{code}/validate
func (h *RoomHandler) Validate(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	exists, err := h.roomSvc.ValidateCode(r.Context(), code)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// Start handles POST /v1/rooms/{id}/start (creator only)
func (h *RoomHandler) Start(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]
	userID := middleware.GetUserID(r.Context())

	if err := h.roomSvc.StartRoom(r.Context(), roomID, userID); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]model.RoomState{"state": model.RoomActive})
}

// Close handles POST /v1/rooms/{id}/close (creator only)
func (h *RoomHandler) Close(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]
	userID := middleware.GetUserID(r.Context())

	if err := h.roomSvc.CloseRoom(r.Context(), roomID, userID); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]model.RoomState{"state": model.RoomCompleted})
}

// Leaderboard handles GET /v1/rooms/{id}/leaderboard
func (h *RoomHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]

	rows, err := h.partSvc.Leaderboard(r.Context(), roomID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": rows})
}
