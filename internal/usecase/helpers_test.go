package usecase

import (
	"context"
	"time"

	"go-healthcare-practice/config"
	"go-healthcare-practice/internal/delivery/http/middleware"
	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/repository/fake"
	"go-healthcare-practice/internal/service"
	"go-healthcare-practice/pkg/clock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// Monday 2 March 2026, 08:00 UTC.
var testNow = ts("2026-03-02T08:00:00Z")

func ts(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func asUser(userID uuid.UUID, roleID int) context.Context {
	return middleware.ContextWithUser(context.Background(), userID, "user@practice.test", roleID, "token-"+userID.String())
}

// fixture wires every fake a usecase needs around one clinic: a doctor,
// a patient and an admin.
type fixture struct {
	log          *logrus.Logger
	clock        *clock.Fixed
	users        *fake.UserRepository
	appointments *fake.AppointmentRepository
	billings     *fake.BillingRepository
	records      *fake.MedicalRecordRepository
	auditRepo    *fake.AuditLogRepository
	locker       *fake.ScheduleLocker
	transactor   *fake.Transactor
	tokens       *fake.TokenStore
	audit        service.AuditService

	doctorID  uuid.UUID
	patientID uuid.UUID
	adminID   uuid.UUID
}

func newFixture() *fixture {
	logger, _ := test.NewNullLogger()
	f := &fixture{
		log:          logger,
		clock:        clock.NewFixed(testNow),
		users:        fake.NewUserRepository(),
		appointments: fake.NewAppointmentRepository(),
		billings:     fake.NewBillingRepository(),
		records:      fake.NewMedicalRecordRepository(),
		auditRepo:    fake.NewAuditLogRepository(),
		locker:       fake.NewScheduleLocker(),
		transactor:   &fake.Transactor{},
		tokens:       fake.NewTokenStore(),
	}
	f.audit = service.NewAuditService(nil, logger, f.auditRepo)

	f.doctorID = f.users.Put(entity.User{
		RoleID:        entity.RoleIDDoctor,
		Email:         "ana.ruiz@clinic.test",
		FullName:      "Dr. Ana Ruiz",
		DoctorProfile: &entity.DoctorProfile{LicenseNumber: "LIC-001", Specialization: "Cardiology"},
	})
	f.patientID = f.users.Put(entity.User{
		RoleID:   entity.RoleIDPatient,
		Email:    "li.wei@mail.test",
		FullName: "Li Wei",
	})
	f.adminID = f.users.Put(entity.User{
		RoleID:   entity.RoleIDAdmin,
		Email:    "admin@clinic.test",
		FullName: "Front Desk",
	})
	return f
}

func (f *fixture) addPatient(name string) uuid.UUID {
	return f.users.Put(entity.User{
		RoleID:   entity.RoleIDPatient,
		Email:    name + "@mail.test",
		FullName: name,
	})
}

func (f *fixture) addDoctor(name, license string) uuid.UUID {
	return f.users.Put(entity.User{
		RoleID:        entity.RoleIDDoctor,
		Email:         name + "@clinic.test",
		FullName:      name,
		DoctorProfile: &entity.DoctorProfile{LicenseNumber: license, Specialization: "General Practice"},
	})
}

func (f *fixture) appointmentUsecase() AppointmentUsecase {
	cfg := config.DefaultScheduling(time.UTC)
	conflicts := service.NewConflictChecker(nil, f.appointments)
	availability := service.NewAvailabilityService(nil, f.users, f.appointments, f.clock, cfg)
	suggestions := service.NewSlotSuggestionService(nil, f.users, f.appointments, f.clock, cfg)
	return NewAppointmentUsecase(nil, f.log, f.appointments, f.users, conflicts, f.locker, availability, suggestions, f.audit, f.clock, cfg)
}

func (f *fixture) billingUsecase() BillingUsecase {
	return NewBillingUsecase(
		nil, f.log, f.transactor, f.billings, f.appointments, f.users,
		service.NewStoreSequencer(nil, f.billings),
		service.NewPaymentProcessor(f.clock),
		f.audit, f.clock, config.DefaultBilling(),
	)
}

// seedAppointment stores an appointment between the fixture doctor and patient.
func (f *fixture) seedAppointment(start string, minutes int, status entity.AppointmentStatus, apptType entity.AppointmentType) entity.Appointment {
	s := ts(start)
	a := entity.Appointment{
		ID:            uuid.New(),
		DoctorID:      f.doctorID,
		PatientID:     f.patientID,
		StartTime:     s,
		EndTime:       s.Add(time.Duration(minutes) * time.Minute),
		Status:        status,
		Type:          apptType,
		Reason:        "check-up",
		PaymentStatus: entity.PaymentStatusPending,
	}
	if err := f.appointments.Create(context.Background(), nil, &a); err != nil {
		panic(err)
	}
	return a
}
