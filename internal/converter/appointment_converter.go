package converter

import (
	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/domain/entity"
)

func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	return &dto.AppointmentResponse{
		ID:                 appointment.ID,
		PatientID:          appointment.PatientID,
		DoctorID:           appointment.DoctorID,
		Patient:            UserToSummary(appointment.Patient),
		Doctor:             UserToSummary(appointment.Doctor),
		StartTime:          appointment.StartTime,
		EndTime:            appointment.EndTime,
		Status:             string(appointment.Status),
		Type:               string(appointment.Type),
		Reason:             appointment.Reason,
		CancellationReason: appointment.CancellationReason,
		TelehealthLink:     appointment.TelehealthLink,
		PaymentStatus:      string(appointment.PaymentStatus),
		LastModifiedBy:     appointment.LastModifiedBy,
		CreatedAt:          appointment.CreatedAt,
		UpdatedAt:          appointment.UpdatedAt,
	}
}

func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}
