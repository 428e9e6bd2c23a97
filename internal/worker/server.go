// Package worker runs the background side of the system: an asynq worker
// consuming scheduled tasks and the scheduler that enqueues the periodic
// expiration sweep.
package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"cuberooms/internal/service"
	"cuberooms/internal/tasks"
)

// Server wraps the asynq worker server and its periodic scheduler.
type Server struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	rooms     *service.RoomService
	logger    *logrus.Logger
	log       *logrus.Entry
}

func NewServer(redisOpt asynq.RedisClientOpt, rooms *service.RoomService, sweepEvery string, logger *logrus.Logger) (*Server, error) {
	log := logger.WithField("component", "worker")

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.WithField("task_type", task.Type()).Errorf("task failed: %v", err)
		}),
	})

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register(fmt.Sprintf("@every %s", sweepEvery), tasks.NewRoomSweepTask()); err != nil {
		return nil, fmt.Errorf("registering sweep schedule: %w", err)
	}

	return &Server{
		server:    server,
		scheduler: scheduler,
		rooms:     rooms,
		logger:    logger,
		log:       log,
	}, nil
}

// Start runs the worker and scheduler. Call from dedicated goroutines' owner;
// it blocks until Shutdown.
func (s *Server) Start() error {
	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeRoomSweep, NewSweepHandler(s.rooms, s.logger))

	go func() {
		if err := s.scheduler.Run(); err != nil {
			s.log.WithError(err).Fatal("scheduler stopped")
		}
	}()

	s.log.Info("worker starting")
	return s.server.Run(mux)
}

// Shutdown stops the scheduler and drains the worker.
func (s *Server) Shutdown() {
	s.scheduler.Shutdown()
	s.server.Shutdown()
	s.log.Info("worker stopped")
}
