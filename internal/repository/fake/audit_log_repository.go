package fake

import (
	"context"
	"sync"

	"go-healthcare-practice/internal/domain/entity"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	mu   sync.Mutex
	logs []entity.AuditLog

	Err error
}

func NewAuditLogRepository() *AuditLogRepository {
	return &AuditLogRepository{}
}

func (r *AuditLogRepository) Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	log.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, *log)
	return nil
}

// Find returns newest entries first, like the SQL implementation.
func (r *AuditLogRepository) Find(ctx context.Context, db *gorm.DB, filter *entity.AuditLogFilter) ([]entity.AuditLog, error) {
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

func (r *AuditLogRepository) Count(ctx context.Context, db *gorm.DB, filter *entity.AuditLogFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	return int64(len(r.match(filter))), nil
}

func (r *AuditLogRepository) FindByID(ctx context.Context, db *gorm.DB, id int64) (*entity.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, l := range r.logs {
		if l.ID == id {
			l := l
			return &l, nil
		}
	}
	return nil, nil
}

// Actions lists recorded actions in insertion order.
func (r *AuditLogRepository) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, len(r.logs))
	for i, l := range r.logs {
		actions[i] = l.Action
	}
	return actions
}

// Entries returns a copy of every recorded entry in insertion order.
func (r *AuditLogRepository) Entries() []entity.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.AuditLog(nil), r.logs...)
}

func (r *AuditLogRepository) match(filter *entity.AuditLogFilter) []entity.AuditLog {
	var out []entity.AuditLog
	for i := len(r.logs) - 1; i >= 0; i-- {
		l := r.logs[i]
		if filter != nil {
			if filter.UserID != nil && (l.UserID == nil || *l.UserID != *filter.UserID) {
				continue
			}
			if filter.Action != "" && l.Action != filter.Action {
				continue
			}
			if filter.ResourceType != "" && l.ResourceType != filter.ResourceType {
				continue
			}
			if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
				continue
			}
		}
		out = append(out, l)
	}
	return out
}
