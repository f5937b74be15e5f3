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

type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayEvening   TimeOfDay = "evening"
)

// timeOfDayOrder also breaks ties when mining preferences.
var timeOfDayOrder = []TimeOfDay{TimeOfDayMorning, TimeOfDayAfternoon, TimeOfDayEvening}

const (
	noonHour    = 12
	eveningHour = 17
)

// TimeOfDayAt buckets a local clock hour: morning before 12:00, afternoon
// until 17:00, evening after.
func TimeOfDayAt(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h < noonHour:
		return TimeOfDayMorning
	case h < eveningHour:
		return TimeOfDayAfternoon
	default:
		return TimeOfDayEvening
	}
}

// Preference is the weekday and part of day a patient books most often.
type Preference struct {
	DayOfWeek time.Weekday `json:"day_of_week"`
	DayName   string       `json:"day_name"`
	TimeOfDay TimeOfDay    `json:"time_of_day"`
}

type SuggestedSlot struct {
	entity.TimeSlot
	Doctor DoctorSummary `json:"doctor"`
}

type Suggestion struct {
	Slots      []SuggestedSlot `json:"suggested_slots"`
	Preference *Preference     `json:"inferred_preference"`
}

type SlotSuggestionService struct {
	db              *gorm.DB
	userRepo        repository.UserRepository
	appointmentRepo repository.AppointmentRepository
	clock           clock.Clock
	cfg             config.SchedulingConfig
}

func NewSlotSuggestionService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	appointmentRepo repository.AppointmentRepository,
	clk clock.Clock,
	cfg config.SchedulingConfig,
) *SlotSuggestionService {
	return &SlotSuggestionService{
		db:              db,
		userRepo:        userRepo,
		appointmentRepo: appointmentRepo,
		clock:           clk,
		cfg:             cfg,
	}
}

// SuggestSlots returns the earliest open slots of doctorID in the coming
// window, biased toward patientID's booking habits when history exists.
// Finding nothing is not an error.
func (s *SlotSuggestionService) SuggestSlots(ctx context.Context, doctorID uuid.UUID, patientID *uuid.UUID) (*Suggestion, error) {
	doctor, err := FindDoctor(ctx, s.db, s.userRepo, doctorID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	window := entity.TimeSlot{Start: now, End: now.AddDate(0, 0, s.cfg.SuggestionDays)}

	filter := (&entity.AppointmentFilter{
		DoctorID:        &doctorID,
		ExcludeStatuses: entity.InactiveAppointmentStatuses,
	}).Overlapping(window)
	appointments, err := s.appointmentRepo.Find(ctx, s.db, filter)
	if err != nil {
		return nil, storeError("find doctor appointments", err)
	}
	booked := activeSlots(appointments)

	var pref *Preference
	if patientID != nil {
		history, err := s.appointmentRepo.Find(ctx, s.db, &entity.AppointmentFilter{
			PatientID:   patientID,
			Statuses:    []entity.AppointmentStatus{entity.AppointmentStatusCompleted},
			NewestFirst: true,
			Limit:       s.cfg.HistorySampleSize,
		})
		if err != nil {
			return nil, storeError("find patient history", err)
		}
		pref = InferPreference(history, s.cfg.Location)
	}

	result := &Suggestion{Slots: []SuggestedSlot{}, Preference: pref}
	summary := SummarizeDoctor(doctor)
	loc := s.cfg.Location
	y, m, d := now.In(loc).Date()

	for offset := 0; offset <= s.cfg.SuggestionDays; offset++ {
		day := time.Date(y, m, d+offset, 0, 0, 0, 0, loc)
		if pref != nil && day.Weekday() != pref.DayOfWeek {
			continue
		}

		startHour, endHour := s.hoursFor(pref)
		hours := entity.TimeSlot{
			Start: time.Date(y, m, d+offset, startHour, 0, 0, 0, loc),
			End:   time.Date(y, m, d+offset, endHour, 0, 0, 0, loc),
		}
		for _, slot := range splitWindow(hours, s.cfg.SlotDuration) {
			if !slot.Start.After(now) || slot.End.After(window.End) {
				continue
			}
			if slot.OverlapsAny(booked) {
				continue
			}
			result.Slots = append(result.Slots, SuggestedSlot{TimeSlot: slot, Doctor: summary})
			if len(result.Slots) == s.cfg.SuggestionLimit {
				return result, nil
			}
		}
	}
	return result, nil
}

// hoursFor narrows the working day to the preferred part of day.
func (s *SlotSuggestionService) hoursFor(pref *Preference) (int, int) {
	if pref == nil {
		return s.cfg.WorkdayStartHour, s.cfg.WorkdayEndHour
	}
	switch pref.TimeOfDay {
	case TimeOfDayMorning:
		return s.cfg.WorkdayStartHour, noonHour
	case TimeOfDayAfternoon:
		return noonHour, s.cfg.WorkdayEndHour
	default:
		return s.cfg.WorkdayEndHour, s.cfg.EveningEndHour
	}
}

// InferPreference picks the most frequent weekday and part of day in history.
// Ties go to the lowest weekday (Sunday first) and to the earlier part of day.
// Returns nil for an empty history.
func InferPreference(history []entity.Appointment, loc *time.Location) *Preference {
	if len(history) == 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	var days [7]int
	buckets := make(map[TimeOfDay]int, len(timeOfDayOrder))
	for i := range history {
		start := history[i].StartTime.In(loc)
		days[start.Weekday()]++
		buckets[TimeOfDayAt(start)]++
	}

	bestDay := time.Sunday
	for day := time.Sunday; day <= time.Saturday; day++ {
		if days[day] > days[bestDay] {
			bestDay = day
		}
	}

	bestBucket := TimeOfDayMorning
	for _, bucket := range timeOfDayOrder {
		if buckets[bucket] > buckets[bestBucket] {
			bestBucket = bucket
		}
	}

	return &Preference{DayOfWeek: bestDay, DayName: bestDay.String(), TimeOfDay: bestBucket}
}
