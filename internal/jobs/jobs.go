// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jobs runs pipeline work in the background on a fixed pool of
// workers and tracks each job through queued, processing, completed and
// failed.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/theme-engine/internal/logger"
	"github.com/pdiddy/theme-engine/pkg/types"
)

var (
	// ErrJobNotFound is returned for an unknown job id.
	ErrJobNotFound = errors.New("jobs: job not found")

	// ErrNotCompleted is returned when asking for the output of a job that
	// has not completed.
	ErrNotCompleted = errors.New("jobs: job has not completed")

	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("jobs: manager is closed")

	// ErrQueueFull is returned by Submit when the queue has no room.
	ErrQueueFull = errors.New("jobs: queue is full")
)

// Func does the work of one job and returns the path of what it produced.
type Func func(ctx context.Context, jobID string) (outputPath string, err error)

type task struct {
	id string
	fn Func
}

// Manager owns the job table and the worker pool.
type Manager struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	jobs   map[string]*types.Job
	order  []string
	closed bool

	queue   chan task
	workers sync.WaitGroup
	pending sync.WaitGroup

	now func() time.Time
}

// NewManager starts cfg.Workers workers. Jobs run with a context derived
// from ctx, cancelled by Close.
func NewManager(ctx context.Context, cfg types.JobsConfig) *Manager {
	cfg = cfg.WithDefaults()
	ctx, cancel := context.WithCancel(ctx)
	m := &Manager{
		ctx:    ctx,
		cancel: cancel,
		jobs:   map[string]*types.Job{},
		queue:  make(chan task, cfg.QueueSize),
		now:    time.Now,
	}
	for i := 0; i < cfg.Workers; i++ {
		m.workers.Add(1)
		go m.work()
	}
	return m
}

// Submit queues fn as a new job of the given kind.
func (m *Manager) Submit(kind string, fn Func) (types.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return types.Job{}, ErrClosed
	}

	now := m.now().UTC()
	job := &types.Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    types.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.pending.Add(1)
	select {
	case m.queue <- task{id: job.ID, fn: fn}:
	default:
		m.pending.Done()
		return types.Job{}, ErrQueueFull
	}

	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	logger.FromContext(m.ctx).Debug("job queued", "id", job.ID, "kind", kind)
	return *job, nil
}

// Get returns a snapshot of job id.
func (m *Manager) Get(id string) (types.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return types.Job{}, fmt.Errorf("%s: %w", id, ErrJobNotFound)
	}
	return *job, nil
}

// List returns snapshots of every job in submission order.
func (m *Manager) List() []types.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Job, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.jobs[id])
	}
	return out
}

// Output returns the output path of a completed job.
func (m *Manager) Output(id string) (string, error) {
	job, err := m.Get(id)
	if err != nil {
		return "", err
	}
	if job.Status != types.JobCompleted {
		return "", fmt.Errorf("%s is %s: %w", id, job.Status, ErrNotCompleted)
	}
	return job.OutputPath, nil
}

// Wait blocks until every submitted job has finished or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs, lets the workers finish what is queued and
// waits for them to exit.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	m.workers.Wait()
	m.cancel()
}

func (m *Manager) work() {
	defer m.workers.Done()
	for t := range m.queue {
		m.run(t)
	}
}

func (m *Manager) run(t task) {
	defer m.pending.Done()
	log := logger.FromContext(m.ctx)

	m.update(t.id, func(j *types.Job) { j.Status = types.JobProcessing })
	log.Info("job started", "id", t.id)

	output, err := call(m.ctx, t)
	if err != nil {
		m.update(t.id, func(j *types.Job) {
			j.Status = types.JobFailed
			j.Error = err.Error()
		})
		log.Warn("job failed", "id", t.id, "err", err)
		return
	}
	m.update(t.id, func(j *types.Job) {
		j.Status = types.JobCompleted
		j.OutputPath = output
	})
	log.Info("job completed", "id", t.id, "output", output)
}

// call runs the job function, turning a panic into an error.
func call(ctx context.Context, t task) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return t.fn(ctx, t.id)
}

func (m *Manager) update(id string, fn func(*types.Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = m.now().UTC()
}
