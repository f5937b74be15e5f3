package repository

import (
	"context"

	"gorm.io/gorm"
)

// Transactor runs fn inside one database transaction. fn receives the
// transaction handle to pass to repository calls; returning an error rolls
// everything back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error
}
