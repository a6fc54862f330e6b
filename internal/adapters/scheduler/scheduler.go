package scheduler

import (
	"sync"
	"time"
)

// Scheduler runs one-shot tasks after a delay.
//
// The returned cancel func reports whether it stopped the task before it ran.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (cancel func() bool)
}

type timerScheduler struct {
	timers   map[uint64]*time.Timer
	nextID   uint64
	shutdown bool
	lock     sync.Mutex
}

func (s *timerScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.shutdown {
		return func() bool { return false }
	}

	id := s.nextID
	s.nextID++

	// The lock is held until the timer is registered, so the callback can't
	// run before it is in the map
	s.timers[id] = time.AfterFunc(d, func() {
		if s.take(id) == nil {
			return
		}
		f()
	})

	return func() bool {
		timer := s.take(id)
		if timer == nil {
			return false
		}
		return timer.Stop()
	}
}

func (s *timerScheduler) take(id uint64) *time.Timer {
	s.lock.Lock()
	defer s.lock.Unlock()

	timer, ok := s.timers[id]
	if !ok {
		return nil
	}
	delete(s.timers, id)
	return timer
}

// Pending returns the number of tasks that have neither run nor been cancelled
func (s *timerScheduler) Pending() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.timers)
}

// Shutdown cancels all pending tasks. Tasks scheduled afterwards never run.
func (s *timerScheduler) Shutdown() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.shutdown = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

func NewTimerScheduler() *timerScheduler {
	return &timerScheduler{
		timers: make(map[uint64]*time.Timer),
	}
}
