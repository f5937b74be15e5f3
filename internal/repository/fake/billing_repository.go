package fake

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-healthcare-practice/internal/domain/entity"
	domainRepo "go-healthcare-practice/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BillingRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]*entity.Billing

	Err error
	// DuplicateCreates makes the next n Create calls fail with
	// ErrDuplicateInvoiceNumber, as if another writer took the number.
	DuplicateCreates int
	// ConcurrentUpdates makes the next n UpdateWithVersion calls lose the
	// race: the stored version is bumped and ErrConcurrentUpdate returned.
	ConcurrentUpdates int
	CreateCalls       int
	UpdateCalls       int
}

func NewBillingRepository(seed ...entity.Billing) *BillingRepository {
	r := &BillingRepository{items: make(map[uuid.UUID]*entity.Billing)}
	for i := range seed {
		b := seed[i].Clone()
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		if b.Version == 0 {
			b.Version = 1
		}
		r.items[b.ID] = b
	}
	return r
}

func (r *BillingRepository) Create(ctx context.Context, db *gorm.DB, billing *entity.Billing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CreateCalls++
	if r.Err != nil {
		return r.Err
	}
	if r.DuplicateCreates > 0 {
		r.DuplicateCreates--
		return domainRepo.ErrDuplicateInvoiceNumber
	}
	for _, existing := range r.items {
		if existing.InvoiceNumber == billing.InvoiceNumber {
			return domainRepo.ErrDuplicateInvoiceNumber
		}
	}
	if billing.ID == uuid.Nil {
		billing.ID = uuid.New()
	}
	billing.Version = 1
	for i := range billing.Items {
		billing.Items[i].BillingID = billing.ID
		billing.Items[i].Position = i + 1
	}
	r.items[billing.ID] = billing.Clone()
	return nil
}

func (r *BillingRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Billing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	b, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return b.Clone(), nil
}

func (r *BillingRepository) Find(ctx context.Context, db *gorm.DB, filter *entity.BillingFilter) ([]entity.Billing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := r.match(filter)
	if filter != nil && filter.Limit > 0 {
		out = page(out, filter.Limit, filter.Offset)
	}
	return out, nil
}

func (r *BillingRepository) Count(ctx context.Context, db *gorm.DB, filter *entity.BillingFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	return int64(len(r.match(filter))), nil
}

func (r *BillingRepository) FindHighestInvoiceNumberWithPrefix(ctx context.Context, db *gorm.DB, prefix string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	highest := ""
	for _, b := range r.items {
		n := b.InvoiceNumber
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		if len(n) > len(highest) || (len(n) == len(highest) && n > highest) {
			highest = n
		}
	}
	return highest, nil
}

func (r *BillingRepository) UpdateWithVersion(ctx context.Context, db *gorm.DB, billing *entity.Billing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpdateCalls++
	if r.Err != nil {
		return r.Err
	}
	stored, ok := r.items[billing.ID]
	if !ok {
		return domainRepo.ErrConcurrentUpdate
	}
	if r.ConcurrentUpdates > 0 {
		r.ConcurrentUpdates--
		stored.Version++
		return domainRepo.ErrConcurrentUpdate
	}
	if stored.Version != billing.Version {
		return domainRepo.ErrConcurrentUpdate
	}
	billing.Version++
	for i := range billing.Items {
		billing.Items[i].BillingID = billing.ID
		billing.Items[i].Position = i + 1
	}
	r.items[billing.ID] = billing.Clone()
	return nil
}

func (r *BillingRepository) FindOverdueCandidates(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]entity.Billing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []entity.Billing
	for _, b := range r.items {
		if overdueEligible(b, now) {
			out = append(out, *b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *BillingRepository) MarkOverdue(ctx context.Context, db *gorm.DB, id uuid.UUID, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	b, ok := r.items[id]
	if !ok || !overdueEligible(b, now) {
		return 0, nil
	}
	b.Status = entity.BillingStatusOverdue
	b.Version++
	return 1, nil
}

// Get returns a copy of the stored invoice.
func (r *BillingRepository) Get(id uuid.UUID) *entity.Billing {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return nil
	}
	return b.Clone()
}

// Put stores billing as-is, replacing any invoice with the same id.
func (r *BillingRepository) Put(billing entity.Billing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[billing.ID] = billing.Clone()
}

func overdueEligible(b *entity.Billing, now time.Time) bool {
	return b.Status == entity.BillingStatusPending && b.DueDate.Before(now) && b.Balance.IsPositive()
}

func (r *BillingRepository) match(filter *entity.BillingFilter) []entity.Billing {
	var out []entity.Billing
	for _, b := range r.items {
		if filter != nil {
			if filter.PatientID != nil && b.PatientID != *filter.PatientID {
				continue
			}
			if filter.DoctorID != nil && b.DoctorID != *filter.DoctorID {
				continue
			}
			if len(filter.Statuses) > 0 && !containsBillingStatus(filter.Statuses, b.Status) {
				continue
			}
			if filter.DueBefore != nil && !b.DueDate.Before(*filter.DueBefore) {
				continue
			}
		}
		out = append(out, *b.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].InvoiceNumber > out[j].InvoiceNumber
	})
	return out
}

func containsBillingStatus(list []entity.BillingStatus, s entity.BillingStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
