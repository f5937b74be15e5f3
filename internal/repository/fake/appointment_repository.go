package fake

import (
	"context"
	"sort"
	"sync"

	"go-healthcare-practice/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]entity.Appointment

	// Err, when set, is returned by every method.
	Err error
	// FindCalls counts Find invocations.
	FindCalls int
}

func NewAppointmentRepository(seed ...entity.Appointment) *AppointmentRepository {
	r := &AppointmentRepository{items: make(map[uuid.UUID]entity.Appointment)}
	for _, a := range seed {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		r.items[a.ID] = a
	}
	return r
}

func (r *AppointmentRepository) Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	r.items[appointment.ID] = *appointment
	return nil
}

func (r *AppointmentRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	a, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *AppointmentRepository) Find(ctx context.Context, db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FindCalls++
	if r.Err != nil {
		return nil, r.Err
	}
	matched := r.match(filter)
	if filter != nil && filter.Limit > 0 {
		matched = page(matched, filter.Limit, filter.Offset)
	}
	return matched, nil
}

func (r *AppointmentRepository) Count(ctx context.Context, db *gorm.DB, filter *entity.AppointmentFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	return int64(len(r.match(filter))), nil
}

func (r *AppointmentRepository) UpdateDetails(ctx context.Context, db *gorm.DB, appointment *entity.Appointment, from entity.AppointmentStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	stored, ok := r.items[appointment.ID]
	if !ok || stored.Status != from {
		return 0, nil
	}
	stored.StartTime = appointment.StartTime
	stored.EndTime = appointment.EndTime
	stored.Type = appointment.Type
	stored.Reason = appointment.Reason
	stored.TelehealthLink = appointment.TelehealthLink
	stored.LastModifiedBy = appointment.LastModifiedBy
	r.items[appointment.ID] = stored
	return 1, nil
}

func (r *AppointmentRepository) SetTelehealthLink(ctx context.Context, db *gorm.DB, id uuid.UUID, link string, from entity.AppointmentStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	stored, ok := r.items[id]
	if !ok || stored.Status != from || stored.Type != entity.AppointmentTypeTelehealth || stored.TelehealthLink != nil {
		return 0, nil
	}
	stored.TelehealthLink = &link
	r.items[id] = stored
	return 1, nil
}

// Put replaces the stored appointment, bypassing every guard.
func (r *AppointmentRepository) Put(appointment entity.Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[appointment.ID] = appointment
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, from []entity.AppointmentStatus, appointment *entity.Appointment) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	stored, ok := r.items[id]
	if !ok {
		return 0, nil
	}
	allowed := false
	for _, s := range from {
		if stored.Status == s {
			allowed = true
		}
	}
	if !allowed {
		return 0, nil
	}
	stored.Status = appointment.Status
	stored.CancellationReason = appointment.CancellationReason
	stored.LastModifiedBy = appointment.LastModifiedBy
	r.items[id] = stored
	return 1, nil
}

func (r *AppointmentRepository) UpdatePaymentStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if stored, ok := r.items[id]; ok {
		stored.PaymentStatus = status
		r.items[id] = stored
	}
	return nil
}

// Get returns the stored appointment without going through Err.
func (r *AppointmentRepository) Get(id uuid.UUID) (entity.Appointment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	return a, ok
}

func (r *AppointmentRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *AppointmentRepository) match(filter *entity.AppointmentFilter) []entity.Appointment {
	var out []entity.Appointment
	for _, a := range r.items {
		a := a
		if filter == nil || filter.Matches(&a) {
			out = append(out, a)
		}
	}
	newestFirst := filter != nil && filter.NewestFirst
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
