package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"cuberooms/internal/cache"
	"cuberooms/internal/service"
	"cuberooms/internal/transport/rest/handler"
	"cuberooms/internal/transport/rest/middleware"
	"cuberooms/internal/transport/ws"
)

// Container holds all dependencies for the router.
type Container struct {
	AuthService        *service.AuthService
	RoomService        *service.RoomService
	ParticipantService *service.ParticipantService
	Leaderboard        cache.LeaderboardCache
	WSHub              *ws.Hub
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(c.AuthService)
	roomHandler := handler.NewRoomHandler(c.RoomService, c.ParticipantService)
	partHandler := handler.NewParticipantHandler(c.ParticipantService)
	wsHandler := ws.NewHandler(c.WSHub, c.RoomService, c.Leaderboard)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(corsMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes: reads are open, code possession authorizes private rooms.
	v1.HandleFunc("/auth/token", authHandler.Token).Methods("POST", "OPTIONS")
	v1.HandleFunc("/rooms/{code}", roomHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/rooms/{code}/validate", roomHandler.Validate).Methods("GET", "OPTIONS")
	v1.HandleFunc("/rooms/{id}/leaderboard", roomHandler.Leaderboard).Methods("GET", "OPTIONS")
	v1.HandleFunc("/ws/rooms/{id}", wsHandler.RoomWS).Methods("GET")

	// Authenticated routes
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/rooms", roomHandler.Create).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{code}/join", partHandler.Join).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{id}/solves", partHandler.SubmitSolve).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{id}/start", roomHandler.Start).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{id}/close", roomHandler.Close).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/users/me/rooms", partHandler.History).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
