package parallel

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newPool(t *testing.T, workers int) *WorkerPool {
	t.Helper()
	pool, err := NewWorkerPool(workers)
	if err != nil {
		t.Fatalf("NewWorkerPool(%d) error: %v", workers, err)
	}
	return pool
}

func TestWorkerPoolBasicOperations(t *testing.T) {
	pool := newPool(t, 4)

	executed := false
	if !pool.Submit(func() error {
		executed = true
		return nil
	}) {
		t.Error("Task submission failed")
	}

	if err := pool.Wait(); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if !executed {
		t.Error("Task was not executed")
	}
}

func TestWorkerPoolZeroWorkers(t *testing.T) {
	pool := newPool(t, 0)
	if pool.Workers() != 1 {
		t.Errorf("Workers() = %d, want 1", pool.Workers())
	}
	pool.Close()
}

func TestWorkerPoolTooManyWorkers(t *testing.T) {
	if _, err := NewWorkerPool(MaxWorkers + 1); !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("NewWorkerPool error = %v, want ErrTooManyWorkers", err)
	}
}

func TestWorkerPoolConcurrentSubmissions(t *testing.T) {
	pool := newPool(t, 10)

	numTasks := 100
	var counter int64

	var wg sync.WaitGroup
	for i := 0; i < numTasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Submit(func() error {
				atomic.AddInt64(&counter, 1)
				return nil
			})
		}()
	}

	wg.Wait()
	if err := pool.Wait(); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}

	if counter != int64(numTasks) {
		t.Errorf("Expected counter %d, got %d", numTasks, counter)
	}
}

// Closing while other goroutines are submitting must not panic.
func TestWorkerPoolCloseRace(t *testing.T) {
	for iteration := 0; iteration < 50; iteration++ {
		pool := newPool(t, 4)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					pool.Submit(func() error {
						time.Sleep(time.Millisecond)
						return nil
					})
				}
			}()
		}

		time.Sleep(2 * time.Millisecond)
		pool.Close()
		wg.Wait()
	}
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := newPool(t, 4)
	pool.Close()

	if pool.Submit(func() error {
		t.Error("This task should never execute")
		return nil
	}) {
		t.Error("Task submission after close should return false")
	}
}

func TestWorkerPoolMultipleClose(t *testing.T) {
	pool := newPool(t, 4)
	pool.Close()
	pool.Close()
	if err := pool.Wait(); err != nil {
		t.Errorf("Wait() after Close error: %v", err)
	}
}

func TestWorkerPoolCollectsErrors(t *testing.T) {
	pool := newPool(t, 3)

	errA := errors.New("file a failed")
	errB := errors.New("file b failed")
	var ok int64

	pool.Submit(func() error { return errA })
	pool.Submit(func() error { return errB })
	for i := 0; i < 5; i++ {
		pool.Submit(func() error {
			atomic.AddInt64(&ok, 1)
			return nil
		})
	}

	err := pool.Wait()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Wait() = %v, want both task errors", err)
	}
	if ok != 5 {
		t.Errorf("successful tasks = %d, want 5", ok)
	}
}

func TestWorkerPoolRecoversPanic(t *testing.T) {
	pool := newPool(t, 2)

	var counter int64
	for i := 0; i < 3; i++ {
		pool.Submit(func() error {
			panic("intentional panic")
		})
	}
	for i := 0; i < 10; i++ {
		pool.Submit(func() error {
			atomic.AddInt64(&counter, 1)
			return nil
		})
	}

	err := pool.Wait()
	if !errors.Is(err, ErrTaskPanic) {
		t.Errorf("Wait() = %v, want ErrTaskPanic", err)
	}
	if counter != 10 {
		t.Errorf("Expected counter 10, got %d", counter)
	}
}

func TestRun(t *testing.T) {
	var counter int64
	tasks := make([]Task, 20)
	for i := range tasks {
		tasks[i] = func() error {
			atomic.AddInt64(&counter, 1)
			return nil
		}
	}

	if err := Run(3, tasks); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if counter != 20 {
		t.Errorf("counter = %d, want 20", counter)
	}

	if err := Run(3, nil); err != nil {
		t.Errorf("Run(nil) error: %v", err)
	}
}

func BenchmarkWorkerPoolThroughput(b *testing.B) {
	pool, _ := NewWorkerPool(10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Submit(func() error { return nil })
	}

	pool.Wait()
}
