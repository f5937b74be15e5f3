package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-healthcare-practice/config"
	"go-healthcare-practice/internal/converter"
	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/domain/repository"
	"go-healthcare-practice/internal/infrastructure/cache"
	"go-healthcare-practice/internal/service"
	"go-healthcare-practice/pkg/apperror"
	"go-healthcare-practice/pkg/clock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound      = apperror.New(apperror.KindNotFound, "appointment not found")
	ErrAppointmentForbidden     = apperror.New(apperror.KindAuthorization, "you do not have access to this appointment")
	ErrTimeSlotConflict         = apperror.New(apperror.KindConflict, "doctor already has an appointment in this time slot")
	ErrScheduleBusy             = apperror.New(apperror.KindConflict, "doctor's schedule is being updated, please retry")
	ErrInvalidTimeRange         = apperror.New(apperror.KindValidation, "end time must be after start time")
	ErrAppointmentInPast        = apperror.New(apperror.KindValidation, "appointment must start in the future")
	ErrPatientRequired          = apperror.New(apperror.KindValidation, "patient_id is required")
	ErrInvalidAppointmentType   = apperror.New(apperror.KindValidation, "type must be in-person or telehealth")
	ErrInvalidStatusFilter      = apperror.New(apperror.KindValidation, "unknown status in filter")
	ErrInvalidDate              = apperror.New(apperror.KindValidation, "invalid date format, use YYYY-MM-DD")
	ErrCancellationReasonNeeded = apperror.New(apperror.KindValidation, "cancellation reason is required")
	ErrInvalidStatusTransition  = apperror.New(apperror.KindConflict, "status transition is not allowed")
	ErrAppointmentStarted       = apperror.New(apperror.KindConflict, "cannot cancel an appointment that has already started")
	ErrAppointmentNotEditable   = apperror.New(apperror.KindConflict, "appointment can no longer be changed")
	ErrNotTelehealth            = apperror.New(apperror.KindValidation, "appointment is not a telehealth appointment")
)

type AppointmentUsecase interface {
	CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)
	ListAppointments(ctx context.Context, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error)
	GetTelehealthLink(ctx context.Context, id uuid.UUID) (*dto.TelehealthLinkResponse, error)
	GetAvailability(ctx context.Context, doctorID uuid.UUID, date string) (*service.Availability, error)
	SuggestSlots(ctx context.Context, doctorID uuid.UUID, patientID *uuid.UUID) (*service.Suggestion, error)
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	userRepo        repository.UserRepository
	conflicts       *service.ConflictChecker
	locker          cache.ScheduleLocker
	availability    *service.AvailabilityService
	suggestions     *service.SlotSuggestionService
	audit           service.AuditService
	clock           clock.Clock
	cfg             config.SchedulingConfig
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	conflicts *service.ConflictChecker,
	locker cache.ScheduleLocker,
	availability *service.AvailabilityService,
	suggestions *service.SlotSuggestionService,
	audit service.AuditService,
	clk clock.Clock,
	cfg config.SchedulingConfig,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		userRepo:        userRepo,
		conflicts:       conflicts,
		locker:          locker,
		availability:    availability,
		suggestions:     suggestions,
		audit:           audit,
		clock:           clk,
		cfg:             cfg,
	}
}

// CreateAppointment books a slot for a patient.
//
// Flow:
// 1. Resolve the patient (self for patients, explicit for admins) and doctor
// 2. Validate the interval and that it lies in the future
// 3. Under the doctor's schedule lock: conflict check, then insert
func (u *appointmentUsecase) CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var patientID uuid.UUID
	switch {
	case current.IsPatient():
		patientID = current.ID
	case current.IsAdmin():
		if req.PatientID == nil {
			return nil, ErrPatientRequired
		}
		patientID = *req.PatientID
	default:
		return nil, ErrForbidden
	}

	slot := entity.TimeSlot{Start: req.StartTime, End: req.EndTime}
	if err := u.validateSlot(slot); err != nil {
		return nil, err
	}

	apptType := entity.AppointmentTypeInPerson
	if req.Type != "" {
		apptType = entity.AppointmentType(req.Type)
	}
	if apptType != entity.AppointmentTypeInPerson && apptType != entity.AppointmentTypeTelehealth {
		return nil, ErrInvalidAppointmentType
	}

	if _, err := service.FindPatient(ctx, u.db, u.userRepo, patientID); err != nil {
		return nil, err
	}
	if _, err := service.FindDoctor(ctx, u.db, u.userRepo, req.DoctorID); err != nil {
		return nil, err
	}

	appointment := &entity.Appointment{
		PatientID:      patientID,
		DoctorID:       req.DoctorID,
		StartTime:      slot.Start,
		EndTime:        slot.End,
		Status:         entity.AppointmentStatusScheduled,
		Type:           apptType,
		Reason:         strings.TrimSpace(req.Reason),
		PaymentStatus:  entity.PaymentStatusPending,
		LastModifiedBy: current.userID(),
	}

	err = u.withDoctorLock(ctx, req.DoctorID, func(ctx context.Context) error {
		busy, err := u.conflicts.HasConflict(ctx, req.DoctorID, slot.Start, slot.End, nil)
		if err != nil {
			return err
		}
		if busy {
			return ErrTimeSlotConflict
		}
		if err := u.appointmentRepo.Create(ctx, u.db, appointment); err != nil {
			u.log.Warnf("Failed to create appointment: %+v", err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Appointment created: id=%s, doctor=%s, start=%s", appointment.ID, appointment.DoctorID, appointment.StartTime.Format(time.RFC3339))
	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionAppointmentCreate,
		ResourceType: entity.AuditResourceAppointment,
		ResourceID:   appointment.ID.String(),
		Description:  "Created appointment",
		Details: map[string]interface{}{
			"doctor_id":  appointment.DoctorID.String(),
			"patient_id": appointment.PatientID.String(),
			"start_time": appointment.StartTime.Format(time.RFC3339),
			"type":       string(appointment.Type),
		},
	})

	return converter.AppointmentToResponse(u.reload(ctx, appointment)), nil
}

func (u *appointmentUsecase) GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.findAccessible(ctx, current, id)
	if err != nil {
		return nil, err
	}

	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionAppointmentRead,
		ResourceType: entity.AuditResourceAppointment,
		ResourceID:   appointment.ID.String(),
		Description:  "Viewed appointment",
	})

	return converter.AppointmentToResponse(appointment), nil
}

// ListAppointments scopes the listing to the caller: patients and doctors
// only ever see their own appointments.
func (u *appointmentUsecase) ListAppointments(ctx context.Context, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	limit, offset := pageWindow(req.Limit, req.Offset)
	filter := &entity.AppointmentFilter{
		DoctorID:  req.DoctorID,
		PatientID: req.PatientID,
		StartFrom: req.From,
		StartTo:   req.To,
		Limit:     limit,
		Offset:    offset,
	}
	switch {
	case current.IsPatient():
		filter.PatientID = current.userID()
	case current.IsDoctor():
		filter.DoctorID = current.userID()
	case !current.IsAdmin():
		return nil, ErrForbidden
	}

	for _, s := range req.Status {
		status := entity.AppointmentStatus(s)
		if !entity.IsValidAppointmentStatus(status) {
			return nil, ErrInvalidStatusFilter
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	total, err := u.appointmentRepo.Count(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to count appointments: %+v", err)
		return nil, err
	}
	appointments, err := u.appointmentRepo.Find(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to find appointments: %+v", err)
		return nil, err
	}

	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionAppointmentList,
		ResourceType: entity.AuditResourceAppointment,
		Description:  "Listed appointments",
		Details:      map[string]interface{}{"count": len(appointments)},
	})

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        total,
	}, nil
}

// UpdateAppointment edits reason or type and reschedules when the interval
// changes. Moving away from telehealth drops the generated link.
func (u *appointmentUsecase) UpdateAppointment(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.findAccessible(ctx, current, id)
	if err != nil {
		return nil, err
	}
	if !current.IsAdmin() && appointment.PatientID != current.ID {
		return nil, ErrAppointmentForbidden
	}
	if appointment.IsTerminal() {
		return nil, ErrAppointmentNotEditable
	}

	slot := appointment.Slot()
	if req.StartTime != nil {
		slot.Start = *req.StartTime
	}
	if req.EndTime != nil {
		slot.End = *req.EndTime
	}
	rescheduled := !slot.Start.Equal(appointment.StartTime) || !slot.End.Equal(appointment.EndTime)
	if rescheduled {
		if err := u.validateSlot(slot); err != nil {
			return nil, err
		}
	}

	if req.Type != nil {
		newType := entity.AppointmentType(*req.Type)
		if newType != entity.AppointmentTypeInPerson && newType != entity.AppointmentTypeTelehealth {
			return nil, ErrInvalidAppointmentType
		}
		if newType != entity.AppointmentTypeTelehealth {
			appointment.TelehealthLink = nil
		}
		appointment.Type = newType
	}
	if req.Reason != nil {
		appointment.Reason = strings.TrimSpace(*req.Reason)
	}
	appointment.StartTime = slot.Start
	appointment.EndTime = slot.End
	appointment.LastModifiedBy = current.userID()

	from := appointment.Status
	save := func(ctx context.Context) error {
		rows, err := u.appointmentRepo.UpdateDetails(ctx, u.db, appointment, from)
		if err != nil {
			u.log.Warnf("Failed to update appointment %s: %+v", appointment.ID, err)
			return err
		}
		if rows == 0 {
			return repository.ErrConcurrentUpdate
		}
		return nil
	}

	if rescheduled {
		err = u.withDoctorLock(ctx, appointment.DoctorID, func(ctx context.Context) error {
			busy, err := u.conflicts.HasConflict(ctx, appointment.DoctorID, slot.Start, slot.End, &appointment.ID)
			if err != nil {
				return err
			}
			if busy {
				return ErrTimeSlotConflict
			}
			return save(ctx)
		})
	} else {
		err = save(ctx)
	}
	if err != nil {
		return nil, err
	}

	details := map[string]interface{}{"rescheduled": rescheduled}
	if rescheduled {
		details["start_time"] = slot.Start.Format(time.RFC3339)
		details["end_time"] = slot.End.Format(time.RFC3339)
	}
	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionAppointmentUpdate,
		ResourceType: entity.AuditResourceAppointment,
		ResourceID:   appointment.ID.String(),
		Description:  "Updated appointment",
		Details:      details,
	})

	return converter.AppointmentToResponse(u.reload(ctx, appointment)), nil
}

// UpdateStatus moves the appointment along its lifecycle. Doctors drive
// their own appointments; patients may only cancel theirs.
func (u *appointmentUsecase) UpdateStatus(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.findAccessible(ctx, current, id)
	if err != nil {
		return nil, err
	}

	next := entity.AppointmentStatus(req.Status)
	switch {
	case current.IsAdmin():
	case current.IsDoctor() && appointment.DoctorID == current.ID:
	case current.IsPatient() && appointment.PatientID == current.ID && next == entity.AppointmentStatusCancelled:
	default:
		return nil, ErrAppointmentForbidden
	}

	if !appointment.CanTransitionTo(next) {
		return nil, ErrInvalidStatusTransition
	}

	from := appointment.Status
	if next == entity.AppointmentStatusCancelled {
		reason := strings.TrimSpace(req.CancellationReason)
		if reason == "" {
			return nil, ErrCancellationReasonNeeded
		}
		if !u.clock.Now().Before(appointment.StartTime) {
			return nil, ErrAppointmentStarted
		}
		appointment.Cancel(reason)
	} else {
		appointment.Status = next
	}
	appointment.LastModifiedBy = current.userID()

	rows, err := u.appointmentRepo.UpdateStatus(ctx, u.db, appointment.ID, []entity.AppointmentStatus{from}, appointment)
	if err != nil {
		u.log.Warnf("Failed to update appointment status %s: %+v", appointment.ID, err)
		return nil, err
	}
	if rows == 0 {
		return nil, repository.ErrConcurrentUpdate
	}

	action := entity.AuditActionAppointmentStatus
	if next == entity.AppointmentStatusCancelled {
		action = entity.AuditActionAppointmentCancel
	}
	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       action,
		ResourceType: entity.AuditResourceAppointment,
		ResourceID:   appointment.ID.String(),
		Description:  fmt.Sprintf("Changed appointment status from %s to %s", from, next),
		Details:      map[string]interface{}{"from": string(from), "to": string(next)},
	})

	return converter.AppointmentToResponse(u.reload(ctx, appointment)), nil
}

// GetTelehealthLink returns the session link, generating it on first use.
func (u *appointmentUsecase) GetTelehealthLink(ctx context.Context, id uuid.UUID) (*dto.TelehealthLinkResponse, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.findAccessible(ctx, current, id)
	if err != nil {
		return nil, err
	}
	if !appointment.IsTelehealth() {
		return nil, ErrNotTelehealth
	}
	if !appointment.IsActive() {
		return nil, ErrAppointmentNotEditable
	}

	if appointment.TelehealthLink == nil {
		link := fmt.Sprintf("%s/%s", strings.TrimRight(u.cfg.TelehealthBaseURL, "/"), uuid.NewString())
		rows, err := u.appointmentRepo.SetTelehealthLink(ctx, u.db, appointment.ID, link, appointment.Status)
		if err != nil {
			u.log.Warnf("Failed to save telehealth link for %s: %+v", appointment.ID, err)
			return nil, err
		}
		if rows == 0 {
			// Another participant may have generated the link first
			stored, err := u.appointmentRepo.FindByID(ctx, u.db, appointment.ID)
			if err != nil {
				return nil, err
			}
			if stored == nil || !stored.IsActive() || !stored.IsTelehealth() || stored.TelehealthLink == nil {
				return nil, repository.ErrConcurrentUpdate
			}
			link = *stored.TelehealthLink
		}
		appointment.TelehealthLink = &link
	}

	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionAppointmentTelehealth,
		ResourceType: entity.AuditResourceAppointment,
		ResourceID:   appointment.ID.String(),
		Description:  "Retrieved telehealth link",
	})

	return &dto.TelehealthLinkResponse{
		AppointmentID: appointment.ID,
		Link:          *appointment.TelehealthLink,
	}, nil
}

// GetAvailability parses date in the practice time zone, defaulting to today.
func (u *appointmentUsecase) GetAvailability(ctx context.Context, doctorID uuid.UUID, date string) (*service.Availability, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	day := u.clock.Now().In(u.cfg.Location)
	if date != "" {
		day, err = time.ParseInLocation("2006-01-02", date, u.cfg.Location)
		if err != nil {
			return nil, ErrInvalidDate
		}
	}

	availability, err := u.availability.GetAvailability(ctx, doctorID, day)
	if err != nil {
		if !errors.Is(err, service.ErrDoctorNotFound) {
			u.log.Warnf("Failed to get availability for doctor %s: %+v", doctorID, err)
		}
		return nil, err
	}

	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionAvailabilityRead,
		ResourceType: entity.AuditResourceDoctor,
		ResourceID:   doctorID.String(),
		Description:  "Viewed doctor availability",
		Details:      map[string]interface{}{"date": availability.Date},
	})

	return availability, nil
}

// SuggestSlots mines the patient's history: patients always get their own,
// staff may name a patient or get unbiased suggestions.
func (u *appointmentUsecase) SuggestSlots(ctx context.Context, doctorID uuid.UUID, patientID *uuid.UUID) (*service.Suggestion, error) {
	current, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if current.IsPatient() {
		patientID = current.userID()
	}

	suggestion, err := u.suggestions.SuggestSlots(ctx, doctorID, patientID)
	if err != nil {
		if !errors.Is(err, service.ErrDoctorNotFound) {
			u.log.Warnf("Failed to suggest slots for doctor %s: %+v", doctorID, err)
		}
		return nil, err
	}

	u.audit.Record(ctx, service.AuditEntry{
		UserID:       current.userID(),
		Action:       entity.AuditActionAppointmentSuggestSlots,
		ResourceType: entity.AuditResourceDoctor,
		ResourceID:   doctorID.String(),
		Description:  "Requested slot suggestions",
		Details:      map[string]interface{}{"count": len(suggestion.Slots)},
	})

	return suggestion, nil
}

func (u *appointmentUsecase) validateSlot(slot entity.TimeSlot) error {
	if !slot.IsValid() {
		return ErrInvalidTimeRange
	}
	if !slot.Start.After(u.clock.Now()) {
		return ErrAppointmentInPast
	}
	return nil
}

// findAccessible loads the appointment and checks the caller is a
// participant or an admin.
func (u *appointmentUsecase) findAccessible(ctx context.Context, current actor, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if !current.IsAdmin() && !appointment.HasParticipant(current.ID) {
		return nil, ErrAppointmentForbidden
	}
	return appointment, nil
}

// withDoctorLock maps lock contention to a retryable conflict.
func (u *appointmentUsecase) withDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error {
	err := u.locker.WithDoctorLock(ctx, doctorID, fn)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cache.ErrLockNotAcquired):
		return ErrScheduleBusy
	case apperror.KindOf(err) != apperror.KindInternal:
		return err
	default:
		u.log.Warnf("Failed to run under schedule lock for doctor %s: %+v", doctorID, err)
		return apperror.Wrap(apperror.KindStoreUnavailable, "schedule lock", err)
	}
}

// reload fetches the stored row with relations, falling back to what we have.
func (u *appointmentUsecase) reload(ctx context.Context, appointment *entity.Appointment) *entity.Appointment {
	full, err := u.appointmentRepo.FindByID(ctx, u.db, appointment.ID)
	if err != nil || full == nil {
		u.log.Warnf("Failed to reload appointment %s: %+v", appointment.ID, err)
		return appointment
	}
	return full
}
