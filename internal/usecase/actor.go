package usecase

import (
	"context"

	"go-healthcare-practice/internal/delivery/http/middleware"
	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/pkg/apperror"

	"github.com/google/uuid"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

var (
	ErrUnauthenticated = apperror.New(apperror.KindAuthorization, "user not found in context")
	ErrForbidden       = apperror.New(apperror.KindAuthorization, "you don't have permission to perform this action")
)

// actor is the authenticated caller as set by the auth middleware.
type actor struct {
	ID     uuid.UUID
	RoleID int
}

func actorFromContext(ctx context.Context) (actor, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return actor{}, ErrUnauthenticated
	}
	roleID, ok := middleware.GetRoleIDFromContext(ctx)
	if !ok {
		return actor{}, ErrUnauthenticated
	}
	return actor{ID: userID, RoleID: roleID}, nil
}

func (a actor) IsAdmin() bool   { return a.RoleID == entity.RoleIDAdmin }
func (a actor) IsDoctor() bool  { return a.RoleID == entity.RoleIDDoctor }
func (a actor) IsPatient() bool { return a.RoleID == entity.RoleIDPatient }

// userID returns a pointer for audit entries.
func (a actor) userID() *uuid.UUID {
	id := a.ID
	return &id
}

// pageWindow clamps a requested limit/offset pair.
func pageWindow(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
