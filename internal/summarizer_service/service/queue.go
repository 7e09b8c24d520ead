package service

import (
	"context"
	"errors"
	"sync"

	"TubeDigest/pkg/logger"
)

// ErrQueueClosed is returned by Submit after Shutdown has been called.
var ErrQueueClosed = errors.New("task queue closed")

// TaskQueue runs submitted jobs on a fixed pool of workers. It bounds how
// many summarization tasks execute concurrently regardless of how fast
// clients submit them.
type TaskQueue struct {
	jobs   chan func(ctx context.Context)
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
	cancel context.CancelFunc
	logger *logger.Logger
}

// NewTaskQueue starts workers goroutines consuming the job channel. The
// queue buffer holds pending jobs beyond the running ones.
func NewTaskQueue(workers, buffer int, log *logger.Logger) *TaskQueue {
	if workers <= 0 {
		workers = 4
	}
	if buffer <= 0 {
		buffer = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &TaskQueue{
		jobs:   make(chan func(ctx context.Context), buffer),
		cancel: cancel,
		logger: log,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	return q
}

// Submit enqueues a job for background execution. It blocks when the buffer
// is full, applying backpressure to the submitter. The lock is held across
// the send so Shutdown cannot close the channel under a pending Submit;
// workers keep draining the buffer, so the send always makes progress.
func (q *TaskQueue) Submit(job func(ctx context.Context)) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.jobs <- job
	return nil
}

// Shutdown stops accepting jobs, cancels the worker context and waits for
// in-flight jobs to observe the cancellation and return.
func (q *TaskQueue) Shutdown() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}

func (q *TaskQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for job := range q.jobs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					q.logger.WithPayload(map[string]interface{}{"panic": r}).Error("Task job panicked")
				}
			}()
			job(ctx)
		}()
	}
}
