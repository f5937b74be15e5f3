package service

import (
	"context"
	"time"

	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConflictChecker decides whether a candidate interval collides with the
// doctor's active calendar.
type ConflictChecker struct {
	db              *gorm.DB
	appointmentRepo repository.AppointmentRepository
}

func NewConflictChecker(db *gorm.DB, appointmentRepo repository.AppointmentRepository) *ConflictChecker {
	return &ConflictChecker{
		db:              db,
		appointmentRepo: appointmentRepo,
	}
}

// HasConflict reports whether any appointment of doctorID with a status other
// than cancelled or no-show overlaps [start, end). excludeID skips one
// appointment, used when an appointment is moved in place.
func (c *ConflictChecker) HasConflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	conflicts, err := c.FindConflicts(ctx, doctorID, entity.TimeSlot{Start: start, End: end}, excludeID)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// FindConflicts returns the overlapping appointments themselves.
func (c *ConflictChecker) FindConflicts(ctx context.Context, doctorID uuid.UUID, slot entity.TimeSlot, excludeID *uuid.UUID) ([]entity.Appointment, error) {
	filter := (&entity.AppointmentFilter{
		DoctorID:        &doctorID,
		ExcludeStatuses: entity.InactiveAppointmentStatuses,
		ExcludeID:       excludeID,
	}).Overlapping(slot)

	candidates, err := c.appointmentRepo.Find(ctx, c.db, filter)
	if err != nil {
		return nil, storeError("find doctor appointments", err)
	}

	var conflicts []entity.Appointment
	for i := range candidates {
		if filter.Matches(&candidates[i]) && candidates[i].Slot().Overlaps(slot) {
			conflicts = append(conflicts, candidates[i])
		}
	}
	return conflicts, nil
}
