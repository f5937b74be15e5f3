package converter

import (
	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/domain/entity"
)

// DoctorProfileToResponse converts a DoctorProfile entity to DoctorResponse DTO
func DoctorProfileToResponse(profile *entity.DoctorProfile) *dto.DoctorResponse {
	if profile == nil {
		return nil
	}

	return &dto.DoctorResponse{
		ID:             profile.UserID,
		Email:          profile.User.Email,
		FullName:       profile.User.FullName,
		LicenseNumber:  profile.LicenseNumber,
		Specialization: profile.Specialization,
		Biography:      profile.Biography,
	}
}

// DoctorProfilesToResponses converts a slice of DoctorProfile entities to slice of DoctorResponse DTOs
func DoctorProfilesToResponses(profiles []entity.DoctorProfile) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(profiles))
	for i := range profiles {
		responses[i] = *DoctorProfileToResponse(&profiles[i])
	}
	return responses
}

// DoctorUserToResponse builds the directory entry from a user with its
// profile preloaded
func DoctorUserToResponse(user *entity.User) *dto.DoctorResponse {
	if user == nil {
		return nil
	}
	resp := &dto.DoctorResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
	}
	if user.DoctorProfile != nil {
		resp.LicenseNumber = user.DoctorProfile.LicenseNumber
		resp.Specialization = user.DoctorProfile.Specialization
		resp.Biography = user.DoctorProfile.Biography
	}
	return resp
}
