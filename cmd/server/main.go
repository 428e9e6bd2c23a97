package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cuberooms/internal/cache"
	"cuberooms/internal/config"
	"cuberooms/internal/repository"
	"cuberooms/internal/scramble"
	"cuberooms/internal/service"
	"cuberooms/internal/transport/rest"
	"cuberooms/internal/transport/ws"
	"cuberooms/internal/worker"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	log := logger.WithField("component", "main")

	cfg := config.Load()
	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.WithError(err).Fatal("failed to ping MongoDB")
	}
	log.Info("connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.WithError(err).Fatal("failed to ping Redis")
	}
	log.Info("connected to Redis")

	// WebSocket hub
	wsHub := ws.NewHub(logger)

	// Repositories and caches
	roomRepo := repository.NewRoomRepo(db)
	partRepo := repository.NewParticipantRepo(db)
	roomCache := cache.NewRoomCache(rdb, cfg.RoomTTL)
	leaderboard := cache.NewLeaderboardCache(rdb)

	// Services
	locks := service.NewRoomLocks()
	provider := scramble.NewProvider(scramble.NewMoveGenerator())
	authSvc := service.NewAuthService(cfg.JWTSecret)
	roomSvc := service.NewRoomService(roomRepo, partRepo, roomCache, leaderboard, provider, locks, cfg.RoomTTL, logger)
	partSvc := service.NewParticipantService(partRepo, roomRepo, leaderboard, roomSvc, locks, logger)

	roomSvc.SetBroadcaster(wsHub)
	partSvc.SetBroadcaster(wsHub)

	// Background sweep: scheduler enqueues, worker executes.
	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	sweeper, err := worker.NewServer(redisOpt, roomSvc, cfg.SweepInterval.String(), logger)
	if err != nil {
		log.WithError(err).Fatal("failed to build worker")
	}
	go func() {
		if err := sweeper.Start(); err != nil {
			log.WithError(err).Fatal("worker stopped")
		}
	}()

	// Router
	container := &rest.Container{
		AuthService:        authSvc,
		RoomService:        roomSvc,
		ParticipantService: partSvc,
		Leaderboard:        leaderboard,
		WSHub:              wsHub,
	}
	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("ListenAndServe")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	sweeper.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("forced shutdown")
	}

	log.Info("server exited")
}
