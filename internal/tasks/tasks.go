// Package tasks defines the asynq task types shared by the scheduler and the
// worker.
package tasks

import "github.com/hibiken/asynq"

// TypeRoomSweep is the periodic forced-expiration pass over overdue rooms.
const TypeRoomSweep = "rooms:sweep"

// NewRoomSweepTask builds the sweep task. It carries no payload; the sweep
// queries its own work.
func NewRoomSweepTask() *asynq.Task {
	return asynq.NewTask(TypeRoomSweep, nil)
}
