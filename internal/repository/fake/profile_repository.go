package fake

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go-healthcare-practice/internal/domain/entity"
	domainRepo "go-healthcare-practice/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DoctorProfileRepository reads doctor accounts from a UserRepository so
// both fakes stay consistent.
type DoctorProfileRepository struct {
	mu       sync.Mutex
	users    *UserRepository
	profiles map[uuid.UUID]entity.DoctorProfile

	Err error
}

func NewDoctorProfileRepository(users *UserRepository) *DoctorProfileRepository {
	return &DoctorProfileRepository{users: users, profiles: make(map[uuid.UUID]entity.DoctorProfile)}
}

func (r *DoctorProfileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, existing := range r.profiles {
		if strings.EqualFold(existing.LicenseNumber, profile.LicenseNumber) {
			return domainRepo.ErrDuplicateRecord
		}
	}
	r.profiles[profile.UserID] = *profile
	return nil
}

func (r *DoctorProfileRepository) FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	if p, ok := r.profiles[userID]; ok {
		return &p, nil
	}
	return nil, nil
}

// FindActive lists doctors from the user fake whose DoctorProfile is set.
func (r *DoctorProfileRepository) FindActive(ctx context.Context, db *gorm.DB, specialization string, limit, offset int) ([]entity.DoctorProfile, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, 0, r.Err
	}

	r.users.mu.Lock()
	var out []entity.DoctorProfile
	for _, u := range r.users.items {
		if !u.IsDoctor() || !u.Active() || u.DoctorProfile == nil {
			continue
		}
		if specialization != "" && !strings.Contains(strings.ToLower(u.DoctorProfile.Specialization), strings.ToLower(specialization)) {
			continue
		}
		p := *u.DoctorProfile
		p.UserID = u.ID
		p.User = u
		p.User.DoctorProfile = nil
		out = append(out, p)
	}
	r.users.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].User.FullName < out[j].User.FullName })
	total := int64(len(out))
	return page(out, limit, offset), total, nil
}

type PatientProfileRepository struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]entity.PatientProfile

	Err error
}

func NewPatientProfileRepository() *PatientProfileRepository {
	return &PatientProfileRepository{profiles: make(map[uuid.UUID]entity.PatientProfile)}
}

func (r *PatientProfileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.profiles[profile.UserID] = *profile
	return nil
}

func (r *PatientProfileRepository) FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.PatientProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	if p, ok := r.profiles[userID]; ok {
		return &p, nil
	}
	return nil, nil
}

type RoleRepository struct{}

func NewRoleRepository() *RoleRepository {
	return &RoleRepository{}
}

func (r *RoleRepository) FindByName(ctx context.Context, db *gorm.DB, name string) (*entity.Role, error) {
	switch name {
	case entity.RoleAdmin:
		return &entity.Role{ID: entity.RoleIDAdmin, RoleName: name}, nil
	case entity.RoleDoctor:
		return &entity.Role{ID: entity.RoleIDDoctor, RoleName: name}, nil
	case entity.RolePatient:
		return &entity.Role{ID: entity.RoleIDPatient, RoleName: name}, nil
	}
	return nil, nil
}
