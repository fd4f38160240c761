package stress

import (
	"context"
	"sync"
	"sync/atomic"
)

// signal coordinates the start barrier and the stop flag shared by workers
type signal struct {
	ready   sync.WaitGroup
	start   chan struct{}
	stop    chan struct{}
	stopped atomic.Bool
	once    sync.Once
}

func newSignal(workers int) *signal {
	s := &signal{
		start: make(chan struct{}),
		stop:  make(chan struct{}),
	}
	s.ready.Add(workers)
	return s
}

// arrive marks a worker as ready and blocks until every worker has arrived.
// It returns false when the run was stopped before the barrier opened.
func (s *signal) arrive() bool {
	s.ready.Done()
	select {
	case <-s.start:
		return true
	case <-s.stop:
		return false
	}
}

// release opens the barrier once all workers arrived. It returns false if
// ctx ended first.
func (s *signal) release(ctx context.Context) bool {
	all := make(chan struct{})
	go func() {
		s.ready.Wait()
		close(all)
	}()

	select {
	case <-all:
		close(s.start)
		return true
	case <-ctx.Done():
		s.halt()
		return false
	}
}

func (s *signal) halt() {
	s.once.Do(func() {
		s.stopped.Store(true)
		close(s.stop)
	})
}

func (s *signal) isStopped() bool {
	return s.stopped.Load()
}
