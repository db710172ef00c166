// Package scheduler runs the periodic lifecycle sweep: a dispatcher enqueues
// sweep tasks on a fixed cadence and an asynq worker executes them.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskLifecycleSweep = "lifecycle.sweep"

// LifecycleSweepPayload scopes one sweep run. An empty BusinessID means the
// full population.
type LifecycleSweepPayload struct {
	BusinessID string `json:"businessId,omitempty"`
}

func NewLifecycleSweepTask(payload LifecycleSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLifecycleSweep, data), nil
}

func ParseLifecycleSweepPayload(task *asynq.Task) (LifecycleSweepPayload, error) {
	var payload LifecycleSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LifecycleSweepPayload{}, err
	}
	return payload, nil
}
