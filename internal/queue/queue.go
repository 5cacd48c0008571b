package queue

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Job encapsulates a unit of work processed by the worker pool.
type Job struct {
	ID       string
	Kind     string
	Work     func(context.Context) error
	OnFinish func(error)
}

// Stats exposes current queue counters.
type Stats struct {
	Length      int
	Capacity    int
	WorkerCount int
	Processed   uint64
	Failed      uint64
}

// Queue is a bounded job queue with a fixed worker pool and a per-job
// timeout. Used to fan source ingestion out across workers and to
// serialize pipeline runs in watch mode.
type Queue struct {
	jobs        chan Job
	workerCount int
	timeout     time.Duration
	started     bool
	mu          sync.RWMutex
	wg          sync.WaitGroup
	processed   uint64
	failed      uint64
}

// New creates a Queue with the provided capacity, worker count, and
// per-job timeout.
func New(capacity, workerCount int, timeout time.Duration) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	if workerCount < 1 {
		workerCount = 1
	}
	return &Queue{
		jobs:        make(chan Job, capacity),
		workerCount: workerCount,
		timeout:     timeout,
	}
}

// Start launches the worker pool. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()
	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Enqueue attempts to queue a job without blocking. Returns false if the
// queue is full or not started.
func (q *Queue) Enqueue(j Job) bool {
	q.mu.RLock()
	started := q.started
	q.mu.RUnlock()
	if !started {
		log.Printf("enqueue called before queue started for job %s", j.ID)
		return false
	}
	select {
	case q.jobs <- j:
		return true
	default:
		log.Printf("job queue full, dropping job %s", j.ID)
		return false
	}
}

// Stop stops accepting new jobs and waits for workers to drain until the
// context is done.
func (q *Queue) Stop(ctx context.Context) {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	close(q.jobs)
	q.started = false
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Stats returns current queue counters.
func (q *Queue) Stats() Stats {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return Stats{
		Length:      len(q.jobs),
		Capacity:    cap(q.jobs),
		WorkerCount: q.workerCount,
		Processed:   atomic.LoadUint64(&q.processed),
		Failed:      atomic.LoadUint64(&q.failed),
	}
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-q.jobs:
			if !ok {
				return
			}
			q.handleJob(ctx, j)
		}
	}
}

func (q *Queue) handleJob(ctx context.Context, j Job) {
	start := time.Now()
	var err error
	// The bookkeeping runs in a defer so a panicking Work still reports
	// through OnFinish instead of leaving its caller waiting.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("job %s panic recovered: %v", j.ID, r)
			err = fmt.Errorf("panic: %v", r)
		}
		if j.OnFinish != nil {
			j.OnFinish(err)
		}
		atomic.AddUint64(&q.processed, 1)
		if err != nil {
			atomic.AddUint64(&q.failed, 1)
		}
		status := "success"
		if err != nil {
			status = err.Error()
		}
		log.Printf("job_kind=%s job=%s duration_ms=%d status=%s", j.Kind, j.ID, time.Since(start).Milliseconds(), status)
	}()

	jobCtx := ctx
	if q.timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	err = j.Work(jobCtx)
}
