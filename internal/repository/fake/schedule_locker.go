package fake

import (
	"context"
	"sync"

	"go-healthcare-practice/internal/infrastructure/cache"

	"github.com/google/uuid"
)

// ScheduleLocker serializes fn per doctor in process.
type ScheduleLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex

	// Busy makes every acquisition fail as if another replica held the lock.
	Busy bool
	// Err, when set, is returned instead of acquiring.
	Err      error
	Acquired int
}

func NewScheduleLocker() *ScheduleLocker {
	return &ScheduleLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *ScheduleLocker) WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.Err != nil {
		l.mu.Unlock()
		return l.Err
	}
	if l.Busy {
		l.mu.Unlock()
		return cache.ErrLockNotAcquired
	}
	lock, ok := l.locks[doctorID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[doctorID] = lock
	}
	l.Acquired++
	l.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}
