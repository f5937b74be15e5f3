package repository

import (
	"context"

	"go-healthcare-practice/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, db *gorm.DB, user *entity.User) error
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*entity.User, error)
	// FindByID preloads the role and both profiles. Returns nil when absent.
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.User, error)
}
