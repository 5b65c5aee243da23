package utils

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// WorkerPool runs jobs on a bounded number of goroutines and spaces out
// jobs that target the same host by at least the configured delay.
type WorkerPool struct {
	semaphore chan struct{}
	wg        sync.WaitGroup
	delay     time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewWorkerPool creates a WorkerPool with the given concurrency and per-host delay.
func NewWorkerPool(maxWorkers int, delay time.Duration) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		semaphore: make(chan struct{}, maxWorkers),
		delay:     delay,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Submit enqueues a job for host. It blocks while the pool is full and returns
// false without running the job when ctx is done first.
func (wp *WorkerPool) Submit(ctx context.Context, host string, job func(ctx context.Context)) bool {
	select {
	case wp.semaphore <- struct{}{}:
	case <-ctx.Done():
		return false
	}

	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if err := wp.limiter(host).Wait(ctx); err != nil {
			return
		}
		job(ctx)
	}()
	return true
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) limiter(host string) *rate.Limiter {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	l, ok := wp.limiters[host]
	if !ok {
		limit := rate.Inf
		if wp.delay > 0 {
			limit = rate.Every(wp.delay)
		}
		l = rate.NewLimiter(limit, 1)
		wp.limiters[host] = l
	}
	return l
}
