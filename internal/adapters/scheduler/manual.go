package scheduler

import (
	"slices"
	"sync"
	"time"
)

type manualTask struct {
	id    uint64
	runAt time.Time
	f     func()
}

// Manual is a Scheduler driven by Advance, for tests
type Manual struct {
	currentTime time.Time
	tasks       []manualTask
	nextID      uint64
	lock        sync.Mutex
}

func NewManual(start time.Time) *Manual {
	return &Manual{
		currentTime: start,
	}
}

func (m *Manual) Now() time.Time {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.currentTime
}

func (m *Manual) AfterFunc(d time.Duration, f func()) func() bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	id := m.nextID
	m.nextID++
	m.tasks = append(m.tasks, manualTask{
		id:    id,
		runAt: m.currentTime.Add(d),
		f:     f,
	})

	return func() bool {
		m.lock.Lock()
		defer m.lock.Unlock()

		index := slices.IndexFunc(m.tasks, func(task manualTask) bool {
			return task.id == id
		})
		if index == -1 {
			return false
		}
		m.tasks = slices.Delete(m.tasks, index, index+1)
		return true
	}
}

// Advance moves the clock forward and runs every task that became due, in order
func (m *Manual) Advance(d time.Duration) {
	m.lock.Lock()
	m.currentTime = m.currentTime.Add(d)

	var due []manualTask
	var remaining []manualTask
	for _, task := range m.tasks {
		if !m.currentTime.Before(task.runAt) {
			due = append(due, task)
		} else {
			remaining = append(remaining, task)
		}
	}
	m.tasks = remaining
	m.lock.Unlock()

	slices.SortStableFunc(due, func(a, b manualTask) int {
		return a.runAt.Compare(b.runAt)
	})

	// Tasks may schedule new tasks, so run them without holding the lock
	for _, task := range due {
		task.f()
	}
}

func (m *Manual) Pending() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return len(m.tasks)
}
