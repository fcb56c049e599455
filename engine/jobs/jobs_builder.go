package jobs

import "time"

// SchedulerBuilderOption is a function that configures a Scheduler during construction.
type SchedulerBuilderOption func(*schedulerImpl)

// WithWorkers sets the number of pool workers. Values below 1 are ignored.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - SchedulerBuilderOption: a function that sets the worker count
func WithWorkers(n int) SchedulerBuilderOption {
	return func(s *schedulerImpl) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithQueueSize sets the capacity of the pool's task queue. Values below 1 are ignored.
//
// Parameters:
//   - n: the queue capacity
//
// Returns:
//   - SchedulerBuilderOption: a function that sets the queue size
func WithQueueSize(n int) SchedulerBuilderOption {
	return func(s *schedulerImpl) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithIdleTimeout sets how long an idle pool worker waits for work before exiting.
//
// Parameters:
//   - d: the idle timeout
//
// Returns:
//   - SchedulerBuilderOption: a function that sets the idle timeout
func WithIdleTimeout(d time.Duration) SchedulerBuilderOption {
	return func(s *schedulerImpl) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}
