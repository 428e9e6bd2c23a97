package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"cuberooms/internal/model"
	"cuberooms/internal/service"
	"cuberooms/internal/transport/rest/middleware"
)

// ParticipantHandler handles join, solve submission and history endpoints.
type ParticipantHandler struct {
	partSvc *service.ParticipantService
}

func NewParticipantHandler(partSvc *service.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{partSvc: partSvc}
}

// Join handles POST /v1/rooms/{code}/join
func (h *ParticipantHandler) Join(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	userID := middleware.GetUserID(r.Context())

	participant, err := h.partSvc.JoinRoom(r.Context(), code, userID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"participantId": participant.ID,
		"roomId":        participant.RoomID,
	})
}

// SubmitSolveRequest is the request body for a solve submission.
type SubmitSolveRequest struct {
	ScrambleIndex int           `json:"scrambleIndex"`
	TimeMs        int64         `json:"timeMs"`
	Penalty       model.Penalty `json:"penalty"`
}

// SubmitSolve handles POST /v1/rooms/{id}/solves
func (h *ParticipantHandler) SubmitSolve(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]
	userID := middleware.GetUserID(r.Context())

	var req SubmitSolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.partSvc.SubmitSolve(r.Context(), roomID, userID, req.ScrambleIndex, req.TimeMs, req.Penalty)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

// History handles GET /v1/users/me/rooms
func (h *ParticipantHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	history, err := h.partSvc.UserHistory(r.Context(), userID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"participations": history})
}
