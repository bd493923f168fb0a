package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"wildberries-scraper/utils"
)

// ErrJobNotFound is returned by JobRunner.Get for unknown ids.
var ErrJobNotFound = errors.New("job not found")

type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// Job is a snapshot of one background parsing task.
type Job struct {
	ID         string     `json:"task_id"`
	URL        string     `json:"url"`
	State      JobState   `json:"state"`
	Synced     int        `json:"synced"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Syncer is the work a job performs.
type Syncer interface {
	Sync(ctx context.Context, categoryURL string) (int, error)
}

// JobRunner runs parsing jobs in the background with bounded concurrency.
type JobRunner struct {
	syncer Syncer
	logger *utils.Logger
	sem    *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobRunner creates a runner executing at most concurrency jobs at once.
func NewJobRunner(syncer Syncer, concurrency int, logger *utils.Logger) *JobRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobRunner{
		syncer: syncer,
		logger: logger,
		sem:    semaphore.NewWeighted(int64(concurrency)),
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*Job),
	}
}

// Start queues a sync of categoryURL and returns its job id immediately.
func (r *JobRunner) Start(categoryURL string) string {
	job := &Job{
		ID:        uuid.NewString(),
		URL:       categoryURL,
		State:     JobPending,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(job.ID, categoryURL)

	r.logger.Info("[jobs] Queued %s for %s", job.ID, categoryURL)
	return job.ID
}

func (r *JobRunner) run(id, categoryURL string) {
	defer r.wg.Done()

	if err := r.sem.Acquire(r.ctx, 1); err != nil {
		r.finish(id, 0, err)
		return
	}
	defer r.sem.Release(1)

	now := time.Now().UTC()
	r.update(id, func(j *Job) {
		j.State = JobRunning
		j.StartedAt = &now
	})

	n, err := r.syncer.Sync(r.ctx, categoryURL)
	r.finish(id, n, err)
}

func (r *JobRunner) finish(id string, synced int, err error) {
	now := time.Now().UTC()
	r.update(id, func(j *Job) {
		j.FinishedAt = &now
		j.Synced = synced
		if err != nil {
			j.State = JobFailed
			j.Error = err.Error()
			return
		}
		j.State = JobSucceeded
	})
	if err != nil {
		r.logger.Error("[jobs] %s failed: %v", id, err)
		return
	}
	r.logger.Info("[jobs] %s finished, synced %d products", id, synced)
}

func (r *JobRunner) update(id string, fn func(*Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		fn(j)
	}
}

// Get returns a copy of the job with the given id.
func (r *JobRunner) Get(id string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return *j, nil
}

// Shutdown cancels running jobs and waits for them to return or ctx to expire.
func (r *JobRunner) Shutdown(ctx context.Context) error {
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
