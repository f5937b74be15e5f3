package usecase

import (
	"errors"
	"testing"

	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/repository/fake"
	"go-healthcare-practice/internal/service"
)

func TestDoctorUsecase_ListAndGet(t *testing.T) {
	f := newFixture()
	f.addDoctor("Dr. Baker", "LIC-002")
	uc := NewDoctorUsecase(nil, f.log, f.users, fake.NewDoctorProfileRepository(f.users))

	all, err := uc.ListDoctors(asUser(f.patientID, entity.RoleIDPatient), &dto.DoctorListRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.Total != 2 {
		t.Fatalf("expected 2 doctors, got %d", all.Total)
	}

	cardio, err := uc.ListDoctors(asUser(f.patientID, entity.RoleIDPatient), &dto.DoctorListRequest{Specialization: "cardio"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if cardio.Total != 1 || cardio.Doctors[0].ID != f.doctorID {
		t.Fatalf("specialization filter should match case-insensitively, got %+v", cardio.Doctors)
	}

	doctor, err := uc.GetDoctor(asUser(f.patientID, entity.RoleIDPatient), f.doctorID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doctor.LicenseNumber != "LIC-001" {
		t.Fatalf("unexpected license %s", doctor.LicenseNumber)
	}
	if _, err := uc.GetDoctor(asUser(f.patientID, entity.RoleIDPatient), f.patientID); !errors.Is(err, service.ErrDoctorNotFound) {
		t.Fatalf("patients are not doctors, got %v", err)
	}
}

func TestAuditLogUsecase_AdminOnlyWithFilters(t *testing.T) {
	f := newFixture()
	uc := NewAuditLogUsecase(nil, f.log, f.auditRepo)
	appointments := f.appointmentUsecase()

	appt := f.seedAppointment("2026-03-03T10:00:00Z", 30, entity.AppointmentStatusScheduled, entity.AppointmentTypeInPerson)
	if _, err := appointments.GetAppointment(asUser(f.patientID, entity.RoleIDPatient), appt.ID); err != nil {
		t.Fatalf("get appointment: %v", err)
	}
	if _, err := appointments.GetAppointment(asUser(f.doctorID, entity.RoleIDDoctor), appt.ID); err != nil {
		t.Fatalf("get appointment: %v", err)
	}

	if _, err := uc.ListAuditLogs(asUser(f.doctorID, entity.RoleIDDoctor), &dto.AuditLogListRequest{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	admin := asUser(f.adminID, entity.RoleIDAdmin)
	byPatient, err := uc.ListAuditLogs(admin, &dto.AuditLogListRequest{UserID: &f.patientID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if byPatient.Total != 1 || byPatient.Logs[0].Action != entity.AuditActionAppointmentRead {
		t.Fatalf("unexpected filtered logs %+v", byPatient.Logs)
	}

	entry, err := uc.GetAuditLog(admin, byPatient.Logs[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry.ResourceID != appt.ID.String() {
		t.Fatalf("unexpected resource %s", entry.ResourceID)
	}
	if _, err := uc.GetAuditLog(admin, 9999); !errors.Is(err, ErrAuditLogNotFound) {
		t.Fatalf("expected ErrAuditLogNotFound, got %v", err)
	}
}
