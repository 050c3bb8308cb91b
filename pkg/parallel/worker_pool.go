// Package parallel provides the bounded worker pool that fans store batches
// out across container files.
package parallel

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

var (
	// ErrTooManyWorkers is returned when the worker count exceeds MaxWorkers.
	ErrTooManyWorkers = errors.New("worker count exceeds maximum")
	// ErrTaskPanic wraps a panic recovered from a task.
	ErrTaskPanic = errors.New("task panicked")
)

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// Task is a unit of work. A returned error is collected and reported by Wait.
type Task func() error

// WorkerPool runs tasks on a fixed number of goroutines fed by a queue.
type WorkerPool struct {
	workers   int
	taskQueue chan Task
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu

	errMu sync.Mutex
	errs  []error
}

// NewWorkerPool creates a pool with the given number of workers and starts them.
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 {
		workers = 1
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan Task, workers*2),
	}

	pool.start()
	return pool, nil
}

// Workers returns the number of worker goroutines
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

func (wp *WorkerPool) start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		if err := wp.run(task); err != nil {
			wp.errMu.Lock()
			wp.errs = append(wp.errs, err)
			wp.errMu.Unlock()
		}
	}
}

// run executes one task, turning a panic into an error so the worker survives.
func (wp *WorkerPool) run(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
		}
	}()
	return task()
}

// Submit queues a task. It returns false if the pool is already closed.
func (wp *WorkerPool) Submit(task Task) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}

	wp.taskQueue <- task
	return true
}

// Close stops accepting tasks and waits for queued ones to finish.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// Wait closes the pool, waits for every task and returns the joined errors
// of all failed tasks (nil when all succeeded).
func (wp *WorkerPool) Wait() error {
	wp.Close()

	wp.errMu.Lock()
	defer wp.errMu.Unlock()
	return errors.Join(wp.errs...)
}

// Run is a convenience that executes tasks on a pool of at most workers
// goroutines and returns their joined errors.
func Run(workers int, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	if workers <= 0 || workers > len(tasks) {
		workers = len(tasks)
	}

	pool, err := NewWorkerPool(workers)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		pool.Submit(task)
	}
	return pool.Wait()
}
