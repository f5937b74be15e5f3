package converter

import (
	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/domain/entity"
)

func MedicalRecordToResponse(record *entity.MedicalRecord) *dto.MedicalRecordResponse {
	if record == nil {
		return nil
	}

	prescriptions := make([]dto.PrescriptionResponse, len(record.Prescriptions))
	for i, p := range record.Prescriptions {
		prescriptions[i] = dto.PrescriptionResponse{
			Medication:   p.Medication,
			Dosage:       p.Dosage,
			Frequency:    p.Frequency,
			DurationDays: p.DurationDays,
			Instructions: p.Instructions,
		}
	}

	return &dto.MedicalRecordResponse{
		ID:            record.ID,
		PatientID:     record.PatientID,
		DoctorID:      record.DoctorID,
		AppointmentID: record.AppointmentID,
		Doctor:        UserToSummary(record.Doctor),
		VisitDate:     record.VisitDate,
		Diagnosis:     record.Diagnosis,
		Symptoms:      record.Symptoms,
		Treatment:     record.Treatment,
		Prescriptions: prescriptions,
		Notes:         record.Notes,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

func MedicalRecordsToResponses(records []entity.MedicalRecord) []dto.MedicalRecordResponse {
	responses := make([]dto.MedicalRecordResponse, len(records))
	for i := range records {
		responses[i] = *MedicalRecordToResponse(&records[i])
	}
	return responses
}

func PrescriptionsFromRequest(items []dto.PrescriptionRequest) entity.Prescriptions {
	out := make(entity.Prescriptions, len(items))
	for i, p := range items {
		out[i] = entity.Prescription{
			Medication:   p.Medication,
			Dosage:       p.Dosage,
			Frequency:    p.Frequency,
			DurationDays: p.DurationDays,
			Instructions: p.Instructions,
		}
	}
	return out
}
