package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"cuberooms/internal/service"
)

// SweepHandler runs the expiration sweep when the scheduled task fires.
type SweepHandler struct {
	rooms *service.RoomService
	log   *logrus.Entry
}

func NewSweepHandler(rooms *service.RoomService, logger *logrus.Logger) *SweepHandler {
	return &SweepHandler{
		rooms: rooms,
		log:   logger.WithField("component", "sweep_handler"),
	}
}

// ProcessTask implements asynq.Handler. The sweep is idempotent, so a retried
// or doubly-delivered task is harmless.
func (h *SweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	count, err := h.rooms.Sweep(ctx)
	if err != nil {
		h.log.WithError(err).Error("sweep failed")
		return err
	}
	h.log.WithField("expired", count).Info("sweep finished")
	return nil
}
