package usecase

import (
	"context"
	"strings"

	"go-healthcare-practice/internal/converter"
	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/domain/repository"
	"go-healthcare-practice/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DoctorUsecase backs the public doctor directory.
type DoctorUsecase interface {
	ListDoctors(ctx context.Context, req *dto.DoctorListRequest) (*dto.DoctorListResponse, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*dto.DoctorResponse, error)
}

type doctorUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	userRepo          repository.UserRepository
	doctorProfileRepo repository.DoctorProfileRepository
}

func NewDoctorUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
) DoctorUsecase {
	return &doctorUsecase{
		db:                db,
		log:               log,
		userRepo:          userRepo,
		doctorProfileRepo: doctorProfileRepo,
	}
}

func (u *doctorUsecase) ListDoctors(ctx context.Context, req *dto.DoctorListRequest) (*dto.DoctorListResponse, error) {
	limit, offset := pageWindow(req.Limit, req.Offset)
	profiles, total, err := u.doctorProfileRepo.FindActive(ctx, u.db, strings.TrimSpace(req.Specialization), limit, offset)
	if err != nil {
		u.log.Warnf("Failed to find doctors: %+v", err)
		return nil, err
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorProfilesToResponses(profiles),
		Total:   total,
	}, nil
}

func (u *doctorUsecase) GetDoctor(ctx context.Context, id uuid.UUID) (*dto.DoctorResponse, error) {
	doctor, err := service.FindDoctor(ctx, u.db, u.userRepo, id)
	if err != nil {
		return nil, err
	}
	return converter.DoctorUserToResponse(doctor), nil
}
