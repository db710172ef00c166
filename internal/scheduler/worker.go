package scheduler

import (
	"context"
	"fmt"

	"retention_backend/internal/lifecycle/service"
	"retention_backend/platform/config"
	"retention_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Sweeper runs one lifecycle sweep. A nil businessID sweeps every
// relationship in the system.
type Sweeper interface {
	Sweep(ctx context.Context, businessID *uuid.UUID) (service.SweepResult, error)
}

// Worker consumes sweep tasks from the queue.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper Sweeper
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sweeper Sweeper, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		sweeper: sweeper,
		log:     log,
	}

	mux.HandleFunc(TaskLifecycleSweep, w.handleLifecycleSweep)

	return w, nil
}

func (w *Worker) handleLifecycleSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLifecycleSweepPayload(task)
	if err != nil {
		return err
	}

	var businessID *uuid.UUID
	if payload.BusinessID != "" {
		id, err := uuid.Parse(payload.BusinessID)
		if err != nil {
			return fmt.Errorf("invalid business id in sweep payload: %w", err)
		}
		businessID = &id
	}

	result, err := w.sweeper.Sweep(ctx, businessID)
	if err != nil {
		return err
	}

	w.log.Info("lifecycle sweep finished",
		"processed", result.Processed,
		"updated", result.Updated,
		"at_risk", result.AtRisk,
		"lost", result.Lost,
		"recovered", result.Recovered,
		"errors", result.Errors)

	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
