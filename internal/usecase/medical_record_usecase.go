package usecase

import (
	"context"
	"strings"

	"go-healthcare-practice/internal/converter"
	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/domain/repository"
	"go-healthcare-practice/internal/service"
	"go-healthcare-practice/pkg/apperror"
	"go-healthcare-practice/pkg/clock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrMedicalRecordNotFound  = apperror.New(apperror.KindNotFound, "medical record not found")
	ErrMedicalRecordForbidden = apperror.New(apperror.KindAuthorization, "you do not have access to these medical records")
)

type MedicalRecordUsecase interface {
	CreateMedicalRecord(ctx context.Context, req *dto.CreateMedicalRecordRequest) (*dto.MedicalRecordResponse, error)
	GetMedicalRecord(ctx context.Context, id uuid.UUID) (*dto.MedicalRecordResponse, error)
	ListPatientRecords(ctx context.Context, patientID uuid.UUID, limit, offset int) (*dto.MedicalRecordListResponse, error)
}

type medicalRecordUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	recordRepo      repository.MedicalRecordRepository
	appointmentRepo repository.AppointmentRepository
	userRepo        repository.UserRepository
	audit           service.AuditService
	clock           clock.Clock
}

func NewMedicalRecordUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	recordRepo repository.MedicalRecordRepository,
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	audit service.AuditService,
	clk clock.Clock,
) MedicalRecordUsecase {
	return &medicalRecordUsecase{
		db:              db,
		log:             log,
		recordRepo:      recordRepo,
		appointmentRepo: appointmentRepo,
		userRepo:        userRepo,
		audit:           audit,
		clock:           clk,
	}
}

// CreateMedicalRecord is for doctors only; the record is always authored by
// the caller.
func (u *medicalRecordUsecase) CreateMedicalRecord(ctx context.Context, req *dto.CreateMedicalRecordRequest) (*dto.MedicalRecordResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !current.IsDoctor() {
		return nil, ErrForbidden
	}

	if _, err := service.FindPatient(ctx, u.db, u.userRepo, req.PatientID); err != nil {
		return nil, err
	}

	visitDate := u.clock.Now()
	if req.AppointmentID != nil {
		appointment, err := u.appointmentRepo.FindByID(ctx, u.db, *req.AppointmentID)
		if err != nil {
			u.log.Warnf("Failed to find appointment %s: %+v", *req.AppointmentID, err)
			return nil, err
		}
		if appointment == nil {
			return nil, ErrAppointmentNotFound
		}
		if appointment.PatientID != req.PatientID || appointment.DoctorID != current.ID {
			return nil, ErrAppointmentMismatch
		}
		visitDate = appointment.StartTime
	}
	if req.VisitDate != nil {
		visitDate = *req.VisitDate
	}

	record := &entity.MedicalRecord{
		PatientID:     req.PatientID,
		DoctorID:      current.ID,
		AppointmentID: req.AppointmentID,
		VisitDate:     visitDate,
		Diagnosis:     strings.TrimSpace(req.Diagnosis),
		Symptoms:      req.Symptoms,
		Treatment:     req.Treatment,
		Prescriptions: converter.PrescriptionsFromRequest(req.Prescriptions),
		Notes:         req.Notes,
	}
	if err := u.recordRepo.Create(ctx, u.db, record); err != nil {
		u.log.Warnf("Failed to create medical record: %+v", err)
		return nil, err
	}

	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionMedicalRecordCreate,
		ResourceType: entity.AuditResourceMedicalRecord,
		ResourceID:   record.ID.String(),
		Description:  "Created medical record",
		Details:      map[string]interface{}{"patient_id": record.PatientID.String()},
	})

	if full, err := u.recordRepo.FindByID(ctx, u.db, record.ID); err == nil && full != nil {
		record = full
	}
	return converter.MedicalRecordToResponse(record), nil
}

func (u *medicalRecordUsecase) GetMedicalRecord(ctx context.Context, id uuid.UUID) (*dto.MedicalRecordResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	record, err := u.recordRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find medical record %s: %+v", id, err)
		return nil, err
	}
	if record == nil {
		return nil, ErrMedicalRecordNotFound
	}
	if record.DoctorID != current.ID {
		if err := u.checkPatientAccess(ctx, current, record.PatientID); err != nil {
			return nil, err
		}
	}

	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionMedicalRecordRead,
		ResourceType: entity.AuditResourceMedicalRecord,
		ResourceID:   record.ID.String(),
		Description:  "Viewed medical record",
		Details:      map[string]interface{}{"patient_id": record.PatientID.String()},
	})

	return converter.MedicalRecordToResponse(record), nil
}

func (u *medicalRecordUsecase) ListPatientRecords(ctx context.Context, patientID uuid.UUID, limit, offset int) (*dto.MedicalRecordListResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := u.checkPatientAccess(ctx, current, patientID); err != nil {
		return nil, err
	}

	limit, offset = pageWindow(limit, offset)
	records, total, err := u.recordRepo.FindByPatientID(ctx, u.db, patientID, limit, offset)
	if err != nil {
		u.log.Warnf("Failed to find medical records for patient %s: %+v", patientID, err)
		return nil, err
	}

	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionMedicalRecordList,
		ResourceType: entity.AuditResourceMedicalRecord,
		ResourceID:   patientID.String(),
		Description:  "Listed patient medical records",
		Details:      map[string]interface{}{"count": len(records)},
	})

	return &dto.MedicalRecordListResponse{
		Records: converter.MedicalRecordsToResponses(records),
		Total:   total,
	}, nil
}

// checkPatientAccess allows the patient, admins and any doctor who has
// treated the patient.
func (u *medicalRecordUsecase) checkPatientAccess(ctx context.Context, current actor, patientID uuid.UUID) error {
	switch {
	case current.IsAdmin():
		return nil
	case current.IsPatient():
		if current.ID == patientID {
			return nil
		}
		return ErrMedicalRecordForbidden
	case current.IsDoctor():
		n, err := u.appointmentRepo.Count(ctx, u.db, &entity.AppointmentFilter{
			DoctorID:  current.userID(),
			PatientID: &patientID,
		})
		if err != nil {
			u.log.Warnf("Failed to count appointments for doctor %s: %+v", current.ID, err)
			return err
		}
		if n == 0 {
			return ErrMedicalRecordForbidden
		}
		return nil
	}
	return ErrForbidden
}
