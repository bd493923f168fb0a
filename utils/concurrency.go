package utils

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// WorkerPool runs jobs with bounded concurrency and a minimum interval
// between job starts.
type WorkerPool struct {
	size     int
	interval time.Duration
	sem      *semaphore.Weighted
	wg       sync.WaitGroup

	mu   sync.Mutex
	next time.Time
}

// NewWorkerPool creates a WorkerPool running at most maxWorkers jobs, started
// at least rateLimitMs apart.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		size:     maxWorkers,
		interval: time.Duration(rateLimitMs) * time.Millisecond,
		sem:      semaphore.NewWeighted(int64(maxWorkers)),
	}
}

// Size returns the maximum number of jobs running at once.
func (wp *WorkerPool) Size() int {
	return wp.size
}

// Submit runs job in the pool, blocking while all workers are busy. It
// returns ctx.Err() if ctx ends before a worker is free. A job whose start
// slot is still pending when ctx ends is skipped.
func (wp *WorkerPool) Submit(ctx context.Context, job func(ctx context.Context)) error {
	if err := wp.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	wp.wg.Add(1)

	go func() {
		defer wp.wg.Done()
		defer wp.sem.Release(1)

		if err := wp.throttle(ctx); err != nil {
			return
		}
		job(ctx)
	}()
	return nil
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// throttle reserves the next start slot and sleeps until it arrives.
func (wp *WorkerPool) throttle(ctx context.Context) error {
	wp.mu.Lock()
	now := time.Now()
	start := wp.next
	if start.Before(now) {
		start = now
	}
	wp.next = start.Add(wp.interval)
	wp.mu.Unlock()

	wait := time.Until(start)
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Set is a thread-safe set used to track already-seen product ids.
type Set[K comparable] struct {
	mu   sync.RWMutex
	seen map[K]struct{}
}

// NewSet creates an empty Set.
func NewSet[K comparable]() *Set[K] {
	return &Set[K]{seen: make(map[K]struct{})}
}

// Add returns true if the key was newly added, false if already present.
func (s *Set[K]) Add(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Contains returns true if the key has already been added.
func (s *Set[K]) Contains(key K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[key]
	return exists
}

// Size returns the number of unique keys tracked.
func (s *Set[K]) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
