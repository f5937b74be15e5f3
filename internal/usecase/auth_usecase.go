package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-healthcare-practice/internal/converter"
	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/delivery/http/middleware"
	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/domain/repository"
	"go-healthcare-practice/internal/infrastructure/cache"
	"go-healthcare-practice/internal/service"
	"go-healthcare-practice/pkg/apperror"
	"go-healthcare-practice/pkg/jwt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenTypeBearer = "Bearer"

var (
	ErrEmailAlreadyExists   = apperror.New(apperror.KindConflict, "email already exists")
	ErrLicenseAlreadyExists = apperror.New(apperror.KindConflict, "license number already exists")
	ErrInvalidCredentials   = apperror.New(apperror.KindAuthorization, "invalid email or password")
	ErrAccountInactive      = apperror.New(apperror.KindAuthorization, "account is inactive")
	ErrInvalidToken         = apperror.New(apperror.KindAuthorization, "invalid or expired token")
	ErrTokenRevoked         = apperror.New(apperror.KindAuthorization, "token has been revoked")
	ErrUserNotFound         = apperror.New(apperror.KindNotFound, "user not found")
	ErrRoleNotFound         = apperror.New(apperror.KindInternal, "role not found")
	ErrInvalidDateFormat    = apperror.New(apperror.KindValidation, "invalid date format, use YYYY-MM-DD")
)

type AuthUsecase interface {
	RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.UserResponse, error)
	RegisterDoctor(ctx context.Context, req *dto.RegisterDoctorRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, req *dto.LogoutRequest) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	GetCurrentUser(ctx context.Context) (*dto.UserResponse, error)
}

type authUsecase struct {
	db                 *gorm.DB
	log                *logrus.Logger
	transactor         repository.Transactor
	userRepo           repository.UserRepository
	roleRepo           repository.RoleRepository
	doctorProfileRepo  repository.DoctorProfileRepository
	patientProfileRepo repository.PatientProfileRepository
	jwtService         *jwt.JWTService
	tokenStore         cache.TokenStore
	audit              service.AuditService
	bcryptCost         int
}

func NewAuthUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	transactor repository.Transactor,
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	patientProfileRepo repository.PatientProfileRepository,
	jwtService *jwt.JWTService,
	tokenStore cache.TokenStore,
	audit service.AuditService,
) AuthUsecase {
	return &authUsecase{
		db:                 db,
		log:                log,
		transactor:         transactor,
		userRepo:           userRepo,
		roleRepo:           roleRepo,
		doctorProfileRepo:  doctorProfileRepo,
		patientProfileRepo: patientProfileRepo,
		jwtService:         jwtService,
		tokenStore:         tokenStore,
		audit:              audit,
		bcryptCost:         bcrypt.DefaultCost,
	}
}

func (u *authUsecase) RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.UserResponse, error) {
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	var user *entity.User
	err = u.transactor.WithinTransaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		created, err := u.createUser(ctx, tx, entity.RolePatient, req.Email, req.Password, req.FullName)
		if err != nil {
			return err
		}

		profile := &entity.PatientProfile{
			UserID:           created.ID,
			PhoneNumber:      req.PhoneNumber,
			DateOfBirth:      dob,
			Gender:           req.Gender,
			Address:          req.Address,
			BloodType:        req.BloodType,
			EmergencyContact: req.EmergencyContact,
		}
		if err := u.patientProfileRepo.Create(ctx, tx, profile); err != nil {
			u.log.Warnf("Failed to create patient profile: %+v", err)
			return err
		}
		created.PatientProfile = profile
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.auditRegistration(ctx, user)
	return converter.UserToResponse(user), nil
}

func (u *authUsecase) RegisterDoctor(ctx context.Context, req *dto.RegisterDoctorRequest) (*dto.UserResponse, error) {
	var user *entity.User
	err := u.transactor.WithinTransaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		created, err := u.createUser(ctx, tx, entity.RoleDoctor, req.Email, req.Password, req.FullName)
		if err != nil {
			return err
		}

		profile := &entity.DoctorProfile{
			UserID:         created.ID,
			LicenseNumber:  req.LicenseNumber,
			Specialization: req.Specialization,
			Biography:      req.Biography,
		}
		if err := u.doctorProfileRepo.Create(ctx, tx, profile); err != nil {
			if errors.Is(err, repository.ErrDuplicateRecord) {
				return ErrLicenseAlreadyExists
			}
			u.log.Warnf("Failed to create doctor profile: %+v", err)
			return err
		}
		created.DoctorProfile = profile
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.auditRegistration(ctx, user)
	return converter.UserToResponse(user), nil
}

// createUser hashes the password and inserts the account with the named role.
func (u *authUsecase) createUser(ctx context.Context, tx *gorm.DB, roleName, email, password, fullName string) (*entity.User, error) {
	role, err := u.roleRepo.FindByName(ctx, tx, roleName)
	if err != nil {
		u.log.Warnf("Failed to find role %s: %+v", roleName, err)
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), u.bcryptCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	active := true
	user := &entity.User{
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: string(hashedPassword),
		FullName: fullName,
		RoleID:   role.ID,
		IsActive: &active,
		Role:     *role,
	}
	if err := u.userRepo.Create(ctx, tx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateRecord) {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed to create user: %+v", err)
		return nil, err
	}
	return user, nil
}

func (u *authUsecase) auditRegistration(ctx context.Context, user *entity.User) {
	u.audit.Record(ctx, service.AuditEntry{
		UserID:       &user.ID,
		Action:       entity.AuditActionUserRegister,
		ResourceType: entity.AuditResourceUser,
		ResourceID:   user.ID.String(),
		Description:  "Registered " + entity.RoleNameByID(user.RoleID) + " account",
	})
}

func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(ctx, u.db, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active() {
		return nil, ErrAccountInactive
	}

	tokens, err := u.issueTokens(ctx, user.ID, user.Email, user.RoleID)
	if err != nil {
		return nil, err
	}

	u.audit.Record(ctx, service.AuditEntry{
		UserID:       &user.ID,
		Action:       entity.AuditActionUserLogin,
		ResourceType: entity.AuditResourceUser,
		ResourceID:   user.ID.String(),
		Description:  "User logged in",
	})
	return tokens, nil
}

// Logout revokes the access token of the current request and, when given,
// the caller's refresh token.
func (u *authUsecase) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	current, err := actorFromContext(ctx)
	if err != nil {
		return err
	}
	tokenID, _ := middleware.GetTokenIDFromContext(ctx)

	if tokenID != "" {
		if err := u.tokenStore.Delete(ctx, jwt.AccessToken, current.ID, tokenID); err != nil {
			u.log.Warnf("Failed to delete access token: %+v", err)
			return apperror.Wrap(apperror.KindStoreUnavailable, "delete access token", err)
		}
	}

	if req != nil && req.RefreshToken != "" {
		claims, err := u.jwtService.ValidateToken(req.RefreshToken)
		if err == nil && claims.TokenType == jwt.RefreshToken && claims.UserID == current.ID {
			if err := u.tokenStore.Delete(ctx, jwt.RefreshToken, current.ID, claims.TokenID); err != nil {
				u.log.Warnf("Failed to delete refresh token: %+v", err)
				return apperror.Wrap(apperror.KindStoreUnavailable, "delete refresh token", err)
			}
		}
	}

	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionUserLogout,
		ResourceType: entity.AuditResourceUser,
		ResourceID:   current.ID.String(),
		Description:  "User logged out",
	})
	return nil
}

// RefreshToken rotates a refresh token: the old one is revoked and a new
// pair is issued. The role is re-read so role changes take effect.
func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := u.jwtService.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != jwt.RefreshToken {
		return nil, ErrInvalidToken
	}

	exists, err := u.tokenStore.Exists(ctx, jwt.RefreshToken, claims.UserID, claims.TokenID)
	if err != nil {
		u.log.Warnf("Failed to check refresh token: %+v", err)
		return nil, apperror.Wrap(apperror.KindStoreUnavailable, "check refresh token", err)
	}
	if !exists {
		return nil, ErrTokenRevoked
	}

	user, err := u.userRepo.FindByID(ctx, u.db, claims.UserID)
	if err != nil {
		u.log.Warnf("Failed to find user %s: %+v", claims.UserID, err)
		return nil, err
	}
	if user == nil || !user.Active() {
		return nil, ErrInvalidToken
	}

	if err := u.tokenStore.Delete(ctx, jwt.RefreshToken, claims.UserID, claims.TokenID); err != nil {
		u.log.Warnf("Failed to delete old refresh token: %+v", err)
		return nil, apperror.Wrap(apperror.KindStoreUnavailable, "delete refresh token", err)
	}

	return u.issueTokens(ctx, user.ID, user.Email, user.RoleID)
}

func (u *authUsecase) GetCurrentUser(ctx context.Context) (*dto.UserResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.FindByID(ctx, u.db, current.ID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return converter.UserToResponse(user), nil
}

func (u *authUsecase) issueTokens(ctx context.Context, userID uuid.UUID, email string, roleID int) (*dto.TokenResponse, error) {
	accessToken, accessTokenID, err := u.jwtService.GenerateAccessToken(userID, email, roleID)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	refreshToken, refreshTokenID, err := u.jwtService.GenerateRefreshToken(userID, email, roleID)
	if err != nil {
		u.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	if err := u.tokenStore.Save(ctx, jwt.AccessToken, userID, accessTokenID, u.jwtService.GetAccessExpiry()); err != nil {
		u.log.Warnf("Failed to store access token in Redis: %+v", err)
		return nil, apperror.Wrap(apperror.KindStoreUnavailable, "store access token", err)
	}

	if err := u.tokenStore.Save(ctx, jwt.RefreshToken, userID, refreshTokenID, u.jwtService.GetRefreshExpiry()); err != nil {
		u.log.Warnf("Failed to store refresh token in Redis: %+v", err)
		return nil, apperror.Wrap(apperror.KindStoreUnavailable, "store refresh token", err)
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}
