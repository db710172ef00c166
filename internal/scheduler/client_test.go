package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"retention_backend/platform/logger"
)

type testSchedulerConfig struct {
	redisURL string
	queue    string
	interval time.Duration
}

func (c testSchedulerConfig) GetRedisURL() string             { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool       { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string       { return c.queue }
func (c testSchedulerConfig) GetAsynqConcurrency() int        { return 1 }
func (c testSchedulerConfig) GetSweepInterval() time.Duration { return c.interval }

func TestClientEnqueueSweep(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testSchedulerConfig{redisURL: "redis://" + mr.Addr(), queue: "lifecycle"}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	businessID := uuid.New()
	err = client.EnqueueSweep(context.Background(), LifecycleSweepPayload{BusinessID: businessID.String()})
	if err != nil {
		t.Fatalf("EnqueueSweep() error = %v", err)
	}

	opt, err := redisClientOpt(cfg.redisURL, false)
	if err != nil {
		t.Fatalf("redisClientOpt() error = %v", err)
	}
	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	pending, err := inspector.ListPendingTasks("lifecycle")
	if err != nil {
		t.Fatalf("ListPendingTasks() error = %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending tasks = %d, want 1", len(pending))
	}
	if pending[0].Type != TaskLifecycleSweep {
		t.Errorf("task type = %q, want %q", pending[0].Type, TaskLifecycleSweep)
	}

	payload, err := ParseLifecycleSweepPayload(asynq.NewTask(pending[0].Type, pending[0].Payload))
	if err != nil {
		t.Fatalf("ParseLifecycleSweepPayload() error = %v", err)
	}
	if payload.BusinessID != businessID.String() {
		t.Errorf("payload business id = %q, want %q", payload.BusinessID, businessID)
	}
}

func TestClientRejectsMissingRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Error("NewClient() with empty redis url should fail")
	}
}

func TestNilClientEnqueueIsNoop(t *testing.T) {
	var client *Client
	if err := client.EnqueueSweep(context.Background(), LifecycleSweepPayload{}); err != nil {
		t.Errorf("nil client EnqueueSweep() error = %v", err)
	}
}

type fakeEnqueuer struct {
	mu       sync.Mutex
	payloads []LifecycleSweepPayload
}

func (f *fakeEnqueuer) EnqueueSweep(_ context.Context, p LifecycleSweepPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return nil
}

func (f *fakeEnqueuer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func TestSweepDispatcherEnqueuesOnCadence(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	d := NewSweepDispatcher(testSchedulerConfig{interval: 10 * time.Millisecond}, enqueuer, logger.New("test"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for enqueuer.count() < 2 {
		select {
		case <-deadline:
			t.Fatal("dispatcher never enqueued two sweeps")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done

	enqueuer.mu.Lock()
	defer enqueuer.mu.Unlock()
	for _, p := range enqueuer.payloads {
		if p.BusinessID != "" {
			t.Errorf("periodic sweep payload scoped to %q, want full population", p.BusinessID)
		}
	}
}
