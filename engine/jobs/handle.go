package jobs

import "errors"

// JobHandle is the completion token of a scheduled job. A handle completes exactly once; its
// error is fixed before completion is signaled and never changes afterwards.
type JobHandle struct {
	done chan struct{}
	err  error
}

func newHandle() *JobHandle {
	return &JobHandle{done: make(chan struct{})}
}

// completedHandle returns a handle that is already complete with the given error.
func completedHandle(err error) *JobHandle {
	h := newHandle()
	h.finish(err)
	return h
}

func (h *JobHandle) finish(err error) {
	h.err = err
	close(h.done)
}

// Complete blocks until the job and everything it depends on has finished.
// A nil handle is treated as already complete.
//
// Returns:
//   - error: the first failure recorded by the job or one of its dependencies
func (h *JobHandle) Complete() error {
	if h == nil {
		return nil
	}
	<-h.done
	return h.err
}

// IsCompleted reports whether the job has finished without blocking.
//
// Returns:
//   - bool: true once the job has finished (successfully or not)
func (h *JobHandle) IsCompleted() bool {
	if h == nil {
		return true
	}
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed when the job finishes.
//
// Returns:
//   - <-chan struct{}: the completion channel
func (h *JobHandle) Done() <-chan struct{} {
	if h == nil {
		return closedChan
	}
	return h.done
}

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// Combine returns a handle that completes when every given handle has completed. Its error
// joins the errors of the inputs. Nil handles are ignored.
//
// Parameters:
//   - deps: the handles to wait on
//
// Returns:
//   - *JobHandle: the combined handle
func Combine(deps ...*JobHandle) *JobHandle {
	pending := 0
	for _, d := range deps {
		if !d.IsCompleted() {
			pending++
		}
	}
	if pending == 0 {
		return completedHandle(joinErrors(deps))
	}
	h := newHandle()
	go func() {
		h.finish(waitAll(deps))
	}()
	return h
}

// waitAll blocks until every handle has completed and returns their joined errors.
func waitAll(deps []*JobHandle) error {
	for _, d := range deps {
		if d != nil {
			<-d.done
		}
	}
	return joinErrors(deps)
}

func joinErrors(deps []*JobHandle) error {
	var errs []error
	for _, d := range deps {
		if d != nil && d.err != nil {
			errs = append(errs, d.err)
		}
	}
	return errors.Join(errs...)
}
