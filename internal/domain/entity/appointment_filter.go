package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentFilter is a domain-level filter for querying appointments.
// Used by repository layer to avoid coupling with delivery DTOs.
// Nil/empty fields are ignored.
type AppointmentFilter struct {
	DoctorID        *uuid.UUID
	PatientID       *uuid.UUID
	Statuses        []AppointmentStatus // status IN (...)
	ExcludeStatuses []AppointmentStatus // status NOT IN (...)
	ExcludeID       *uuid.UUID
	StartsBefore    *time.Time // start_time < value
	EndsAfter       *time.Time // end_time > value
	StartFrom       *time.Time // start_time >= value
	StartTo         *time.Time // start_time < value
	NewestFirst     bool
	Limit           int
	Offset          int
}

// Overlapping restricts the filter to appointments overlapping slot
func (f *AppointmentFilter) Overlapping(slot TimeSlot) *AppointmentFilter {
	f.StartsBefore = &slot.End
	f.EndsAfter = &slot.Start
	return f
}

// Matches applies the filter to an in-memory appointment. Repositories push the
// same predicates down to SQL; callers use Matches to re-check results.
func (f *AppointmentFilter) Matches(a *Appointment) bool {
	if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
		return false
	}
	if f.PatientID != nil && a.PatientID != *f.PatientID {
		return false
	}
	if f.ExcludeID != nil && a.ID == *f.ExcludeID {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, a.Status) {
		return false
	}
	if containsStatus(f.ExcludeStatuses, a.Status) {
		return false
	}
	if f.StartsBefore != nil && !a.StartTime.Before(*f.StartsBefore) {
		return false
	}
	if f.EndsAfter != nil && !a.EndTime.After(*f.EndsAfter) {
		return false
	}
	if f.StartFrom != nil && a.StartTime.Before(*f.StartFrom) {
		return false
	}
	if f.StartTo != nil && !a.StartTime.Before(*f.StartTo) {
		return false
	}
	return true
}

func containsStatus(list []AppointmentStatus, s AppointmentStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
