package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"cuberooms/internal/model"
	"cuberooms/internal/service"
)

// AuthHandler issues user tokens.
type AuthHandler struct {
	authSvc *service.AuthService
}

func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Token handles POST /v1/auth/token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req model.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.IssueToken(req.Handle)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// statusFor maps service sentinels to HTTP statuses. Unknown errors are
// infrastructure failures and surface as 500s.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrNotAParticipant):
		return http.StatusNotFound
	case errors.Is(err, service.ErrRoomClosed),
		errors.Is(err, service.ErrAlreadyJoined):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotCreator):
		return http.StatusForbidden
	case errors.Is(err, service.ErrOutOfOrder),
		errors.Is(err, service.ErrInvalidEvent),
		errors.Is(err, service.ErrInvalidFormat),
		errors.Is(err, service.ErrInvalidVisibility),
		errors.Is(err, service.ErrInvalidPenalty),
		errors.Is(err, service.ErrInvalidSolveTime),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrInvalidHandle):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
