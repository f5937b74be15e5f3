package fake

import (
	"context"
	"strings"
	"sync"

	"go-healthcare-practice/internal/domain/entity"
	domainRepo "go-healthcare-practice/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]entity.User

	Err error
}

func NewUserRepository(seed ...entity.User) *UserRepository {
	r := &UserRepository{items: make(map[uuid.UUID]entity.User)}
	for _, u := range seed {
		r.Put(u)
	}
	return r
}

// Put stores or replaces a user, assigning an id when missing.
func (r *UserRepository) Put(user entity.User) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.items[user.ID] = user
	return user.ID
}

func (r *UserRepository) Create(ctx context.Context, db *gorm.DB, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, existing := range r.items {
		if strings.EqualFold(existing.Email, user.Email) {
			return domainRepo.ErrDuplicateRecord
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.items[user.ID] = *user
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.items {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}
