// Package fake provides in-memory implementations of the domain repositories
// and Redis-backed helpers for unit tests. They ignore the *gorm.DB argument.
package fake

import (
	domainRepo "go-healthcare-practice/internal/domain/repository"
	"go-healthcare-practice/internal/infrastructure/cache"
)

var (
	_ domainRepo.AppointmentRepository    = (*AppointmentRepository)(nil)
	_ domainRepo.BillingRepository        = (*BillingRepository)(nil)
	_ domainRepo.UserRepository           = (*UserRepository)(nil)
	_ domainRepo.DoctorProfileRepository  = (*DoctorProfileRepository)(nil)
	_ domainRepo.PatientProfileRepository = (*PatientProfileRepository)(nil)
	_ domainRepo.RoleRepository           = (*RoleRepository)(nil)
	_ domainRepo.AuditLogRepository       = (*AuditLogRepository)(nil)
	_ domainRepo.MedicalRecordRepository  = (*MedicalRecordRepository)(nil)
	_ domainRepo.Transactor               = (*Transactor)(nil)

	_ cache.ScheduleLocker = (*ScheduleLocker)(nil)
	_ cache.TokenStore     = (*TokenStore)(nil)
)
