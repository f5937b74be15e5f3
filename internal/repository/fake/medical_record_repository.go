package fake

import (
	"context"
	"sort"
	"sync"

	"go-healthcare-practice/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MedicalRecordRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]entity.MedicalRecord

	Err error
}

func NewMedicalRecordRepository() *MedicalRecordRepository {
	return &MedicalRecordRepository{records: make(map[uuid.UUID]entity.MedicalRecord)}
}

func (r *MedicalRecordRepository) Create(ctx context.Context, db *gorm.DB, record *entity.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	r.records[record.ID] = *record
	return nil
}

func (r *MedicalRecordRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.MedicalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	if rec, ok := r.records[id]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (r *MedicalRecordRepository) FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID, limit, offset int) ([]entity.MedicalRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, 0, r.Err
	}
	var out []entity.MedicalRecord
	for _, rec := range r.records {
		if rec.PatientID == patientID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VisitDate.After(out[j].VisitDate) })
	total := int64(len(out))
	return page(out, limit, offset), total, nil
}
