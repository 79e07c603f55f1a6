package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"smartval/internal/model"
	"smartval/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrQueueFull is returned when the job queue cannot accept more work.
var ErrQueueFull = errors.New("job queue is full")

// TaskRunner is one unit of background work. The returned value is marshaled
// into the task record for polling clients.
type TaskRunner func(ctx context.Context) (any, error)

type job struct {
	id   string
	kind string
	run  TaskRunner
}

// WorkerPool executes valuations and imports off the request path. Callers get
// a task id at submit time and poll the task store for the outcome. There is
// no cancellation: an abandoned job runs to completion and its result ages out
// of the store.
type WorkerPool struct {
	tasks   store.TaskStore
	logger  *zap.Logger
	jobs    chan job
	workers int
	wg      sync.WaitGroup
}

// NewWorkerPool creates a pool with a fixed worker count and a bounded queue.
func NewWorkerPool(tasks store.TaskStore, workers, queueSize int, logger *zap.Logger) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	return &WorkerPool{
		tasks:   tasks,
		logger:  logger,
		jobs:    make(chan job, queueSize),
		workers: workers,
	}
}

// Start launches the workers.
func (p *WorkerPool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				p.execute(j)
			}
		}()
	}
	p.logger.Info("worker pool started", zap.Int("workers", p.workers), zap.Int("queue", cap(p.jobs)))
}

// Stop drains the queue and waits for in-flight jobs. Submit must not be
// called after Stop.
func (p *WorkerPool) Stop() {
	close(p.jobs)
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// Submit registers a pending task and enqueues it, returning the task id.
func (p *WorkerPool) Submit(ctx context.Context, kind string, run TaskRunner) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	rec := &model.TaskRecord{
		ID:        id,
		Kind:      kind,
		State:     model.TaskPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.tasks.Put(ctx, rec); err != nil {
		return "", err
	}

	select {
	case p.jobs <- job{id: id, kind: kind, run: run}:
		return id, nil
	default:
		rec.State = model.TaskFailed
		rec.Error = "server busy, try again later"
		rec.UpdatedAt = time.Now().UTC()
		_ = p.tasks.Put(ctx, rec)
		return "", ErrQueueFull
	}
}

func (p *WorkerPool) execute(j job) {
	// Jobs deliberately outlive the submitting request.
	ctx := context.Background()

	p.setState(ctx, j, model.TaskRunning, nil, "")

	result, err := j.run(ctx)
	if err != nil {
		p.logger.Warn("background job failed",
			zap.String("task_id", j.id),
			zap.String("kind", j.kind),
			zap.Error(err),
		)
		p.setState(ctx, j, model.TaskFailed, nil, err.Error())
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		p.logger.Error("failed to marshal job result", zap.String("task_id", j.id), zap.Error(err))
		p.setState(ctx, j, model.TaskFailed, nil, "internal error")
		return
	}
	p.setState(ctx, j, model.TaskSucceeded, payload, "")
}

func (p *WorkerPool) setState(ctx context.Context, j job, state model.TaskState, result json.RawMessage, errMsg string) {
	rec, err := p.tasks.Get(ctx, j.id)
	if err != nil {
		// Record may have expired mid-run; recreate it so the poller sees
		// the terminal state.
		rec = &model.TaskRecord{ID: j.id, Kind: j.kind, CreatedAt: time.Now().UTC()}
	}
	rec.State = state
	rec.Result = result
	rec.Error = errMsg
	rec.UpdatedAt = time.Now().UTC()
	if err := p.tasks.Put(ctx, rec); err != nil {
		p.logger.Warn("failed to update task state",
			zap.String("task_id", j.id),
			zap.String("state", string(state)),
			zap.Error(err),
		)
	}
}
