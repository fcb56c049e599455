package jobs

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-cluster/common"
)

// ChunksPerWorker is the number of chunks a parallel job is split into per worker when the
// caller lets the scheduler pick the batch size.
const ChunksPerWorker = 4

// ParallelFunc processes the half-open index range [start, end) of a parallel job.
// Different invocations of the same job receive disjoint ranges and may run concurrently.
type ParallelFunc func(start, end int)

// schedulerImpl is the implementation of the Scheduler interface.
type schedulerImpl struct {
	pool        worker.DynamicWorkerPool
	workers     int
	queueSize   int
	idleTimeout time.Duration
	nextID      atomic.Int64
}

// Scheduler runs jobs on a shared worker pool. Each job is scheduled with the handles it depends
// on and returns its own handle, so a chain of stages can be built without blocking the caller.
// Dependencies are awaited off the pool; pool workers only ever execute runnable chunks.
type Scheduler interface {
	// Schedule runs fn once after all deps complete.
	//
	// Parameters:
	//   - name: job name used in error messages
	//   - fn: the work to run
	//   - deps: handles that must complete first
	//
	// Returns:
	//   - *JobHandle: completes when fn has returned
	Schedule(name string, fn func(), deps ...*JobHandle) *JobHandle

	// ScheduleParallel splits [0, count) into chunks of at most batch indices and runs fn on
	// each chunk once all deps complete. A batch <= 0 lets the scheduler pick one via BatchSize.
	// If a dependency failed the job is skipped and inherits the failure.
	//
	// Parameters:
	//   - name: job name used in error messages
	//   - count: number of indices to process
	//   - batch: maximum indices per chunk
	//   - fn: the per-chunk work
	//   - deps: handles that must complete first
	//
	// Returns:
	//   - *JobHandle: completes when every chunk has returned
	ScheduleParallel(name string, count, batch int, fn ParallelFunc, deps ...*JobHandle) *JobHandle

	// BatchSize returns a chunk size that splits count indices into about ChunksPerWorker
	// chunks per worker.
	//
	// Parameters:
	//   - count: number of indices
	//
	// Returns:
	//   - int: chunk size, at least 1
	BatchSize(count int) int

	// Workers returns the number of pool workers.
	//
	// Returns:
	//   - int: the worker count
	Workers() int
}

var _ Scheduler = &schedulerImpl{}

// NewScheduler creates a Scheduler backed by a dynamic worker pool. The worker count defaults to
// one less than the number of CPUs (at least 1).
//
// Parameters:
//   - options: functional options to configure the scheduler
//
// Returns:
//   - Scheduler: the newly created scheduler
func NewScheduler(options ...SchedulerBuilderOption) Scheduler {
	s := &schedulerImpl{
		workers:     max(runtime.NumCPU()-1, 1),
		queueSize:   256,
		idleTimeout: 1 * time.Second,
	}
	for _, option := range options {
		option(s)
	}
	s.pool = worker.NewDynamicWorkerPool(s.workers, s.queueSize, s.idleTimeout)
	return s
}

func (s *schedulerImpl) Workers() int {
	return s.workers
}

func (s *schedulerImpl) BatchSize(count int) int {
	chunks := s.workers * ChunksPerWorker
	return max((count+chunks-1)/chunks, 1)
}

func (s *schedulerImpl) Schedule(name string, fn func(), deps ...*JobHandle) *JobHandle {
	return s.ScheduleParallel(name, 1, 1, func(int, int) { fn() }, deps...)
}

func (s *schedulerImpl) ScheduleParallel(name string, count, batch int, fn ParallelFunc, deps ...*JobHandle) *JobHandle {
	if batch <= 0 {
		batch = s.BatchSize(count)
	}
	h := newHandle()
	go func() {
		if err := waitAll(deps); err != nil {
			h.finish(fmt.Errorf("jobs: %s skipped: %w", name, err))
			return
		}
		h.finish(s.run(name, count, batch, fn))
	}()
	return h
}

// run submits one pool task per chunk and waits for all of them. The waiting goroutine is never
// a pool worker, so a full pool cannot deadlock on its own dependencies.
func (s *schedulerImpl) run(name string, count, batch int, fn ParallelFunc) error {
	if count <= 0 {
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for start := 0; start < count; start += batch {
		end := min(start+batch, count)
		wg.Add(1)
		s.pool.SubmitTask(worker.Task{
			ID: int(s.nextID.Add(1)),
			Do: func() (any, error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						err := fmt.Errorf("jobs: %s chunk [%d, %d) panicked: %v", name, start, end, r)
						common.Logger().Warn("job chunk failed", "job", name, "start", start, "end", end, "panic", r)
						mu.Lock()
						errs = append(errs, err)
						mu.Unlock()
					}
				}()
				fn(start, end)
				return nil, nil
			},
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}
