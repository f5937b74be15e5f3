package service

import (
	"context"

	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DoctorSummary is the doctor identity attached to generated slots.
type DoctorSummary struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"full_name"`
	Specialization string    `json:"specialization,omitempty"`
}

// FindDoctor returns ErrDoctorNotFound unless id is an active doctor account.
func FindDoctor(ctx context.Context, db *gorm.DB, userRepo repository.UserRepository, id uuid.UUID) (*entity.User, error) {
	user, err := userRepo.FindByID(ctx, db, id)
	if err != nil {
		return nil, storeError("find doctor", err)
	}
	if user == nil || !user.IsDoctor() || !user.Active() {
		return nil, ErrDoctorNotFound
	}
	return user, nil
}

// FindPatient returns ErrPatientNotFound unless id is an active patient account.
func FindPatient(ctx context.Context, db *gorm.DB, userRepo repository.UserRepository, id uuid.UUID) (*entity.User, error) {
	user, err := userRepo.FindByID(ctx, db, id)
	if err != nil {
		return nil, storeError("find patient", err)
	}
	if user == nil || !user.IsPatient() || !user.Active() {
		return nil, ErrPatientNotFound
	}
	return user, nil
}

func SummarizeDoctor(user *entity.User) DoctorSummary {
	return DoctorSummary{
		ID:             user.ID,
		FullName:       user.FullName,
		Specialization: user.Specialization(),
	}
}
