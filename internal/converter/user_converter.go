package converter

import (
	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO
// Includes DoctorProfile and PatientProfile if they are loaded
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	response := &dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      roleName(user),
		IsActive:  user.Active(),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}

	if user.DoctorProfile != nil {
		response.DoctorProfile = &dto.DoctorProfileResponse{
			LicenseNumber:  user.DoctorProfile.LicenseNumber,
			Specialization: user.DoctorProfile.Specialization,
			Biography:      user.DoctorProfile.Biography,
		}
	}

	if user.PatientProfile != nil {
		response.PatientProfile = PatientProfileToResponse(user.PatientProfile)
	}

	return response
}

func PatientProfileToResponse(profile *entity.PatientProfile) *dto.PatientProfileResponse {
	if profile == nil {
		return nil
	}
	return &dto.PatientProfileResponse{
		UserID:           profile.UserID,
		PhoneNumber:      profile.PhoneNumber,
		DateOfBirth:      profile.DateOfBirth.Format("2006-01-02"),
		Gender:           profile.Gender,
		Address:          profile.Address,
		BloodType:        profile.BloodType,
		EmergencyContact: profile.EmergencyContact,
	}
}

// UserToSummary returns nil when the relation was not loaded
func UserToSummary(user *entity.User) *dto.UserSummary {
	if user == nil {
		return nil
	}
	return &dto.UserSummary{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Role:     roleName(user),
	}
}

// roleName falls back to the id mapping when Role was not preloaded
func roleName(user *entity.User) string {
	if user.Role.RoleName != "" {
		return user.Role.RoleName
	}
	return entity.RoleNameByID(user.RoleID)
}
