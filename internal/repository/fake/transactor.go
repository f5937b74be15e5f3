package fake

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Transactor calls fn directly with a nil handle. It does not roll back:
// tests assert on what the fakes saw before the failing step.
type Transactor struct {
	mu    sync.Mutex
	Calls int
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	t.mu.Lock()
	t.Calls++
	t.mu.Unlock()
	return fn(ctx, nil)
}
