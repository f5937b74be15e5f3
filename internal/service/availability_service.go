package service

import (
	"context"
	"time"

	"go-healthcare-practice/config"
	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/domain/repository"
	"go-healthcare-practice/pkg/clock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Availability is one doctor's working day split into fixed-length slots.
type Availability struct {
	Doctor         DoctorSummary     `json:"doctor"`
	Date           string            `json:"date"`
	SlotMinutes    int               `json:"slot_minutes"`
	AvailableSlots []entity.TimeSlot `json:"available_slots"`
	BusySlots      []entity.TimeSlot `json:"busy_slots"`
}

type AvailabilityService struct {
	db              *gorm.DB
	userRepo        repository.UserRepository
	appointmentRepo repository.AppointmentRepository
	clock           clock.Clock
	cfg             config.SchedulingConfig
}

func NewAvailabilityService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	appointmentRepo repository.AppointmentRepository,
	clk clock.Clock,
	cfg config.SchedulingConfig,
) *AvailabilityService {
	return &AvailabilityService{
		db:              db,
		userRepo:        userRepo,
		appointmentRepo: appointmentRepo,
		clock:           clk,
		cfg:             cfg,
	}
}

// GetAvailability classifies every slot of the working window on date as
// busy or available. Busy slots overlap an active appointment; available
// slots are only listed when they start after now.
func (s *AvailabilityService) GetAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time) (*Availability, error) {
	doctor, err := FindDoctor(ctx, s.db, s.userRepo, doctorID)
	if err != nil {
		return nil, err
	}

	loc := s.cfg.Location
	y, m, d := date.In(loc).Date()
	window := entity.TimeSlot{
		Start: time.Date(y, m, d, s.cfg.WorkdayStartHour, 0, 0, 0, loc),
		End:   time.Date(y, m, d, s.cfg.WorkdayEndHour, 0, 0, 0, loc),
	}

	filter := (&entity.AppointmentFilter{
		DoctorID:        &doctorID,
		ExcludeStatuses: entity.InactiveAppointmentStatuses,
	}).Overlapping(window)
	appointments, err := s.appointmentRepo.Find(ctx, s.db, filter)
	if err != nil {
		return nil, storeError("find doctor appointments", err)
	}
	booked := activeSlots(appointments)

	now := s.clock.Now()
	result := &Availability{
		Doctor:         SummarizeDoctor(doctor),
		Date:           window.Start.Format("2006-01-02"),
		SlotMinutes:    int(s.cfg.SlotDuration / time.Minute),
		AvailableSlots: []entity.TimeSlot{},
		BusySlots:      []entity.TimeSlot{},
	}
	for _, slot := range splitWindow(window, s.cfg.SlotDuration) {
		switch {
		case slot.OverlapsAny(booked):
			result.BusySlots = append(result.BusySlots, slot)
		case slot.Start.After(now):
			result.AvailableSlots = append(result.AvailableSlots, slot)
		}
	}
	return result, nil
}

// splitWindow cuts window into consecutive slots of size; a trailing piece
// shorter than size is dropped.
func splitWindow(window entity.TimeSlot, size time.Duration) []entity.TimeSlot {
	if size <= 0 {
		return nil
	}
	var slots []entity.TimeSlot
	for start := window.Start; !start.Add(size).After(window.End); start = start.Add(size) {
		slots = append(slots, entity.NewTimeSlot(start, size))
	}
	return slots
}

func activeSlots(appointments []entity.Appointment) []entity.TimeSlot {
	slots := make([]entity.TimeSlot, 0, len(appointments))
	for i := range appointments {
		if appointments[i].IsActive() {
			slots = append(slots, appointments[i].Slot())
		}
	}
	return slots
}
