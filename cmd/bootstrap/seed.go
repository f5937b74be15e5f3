package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/delivery/http/middleware"
	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/usecase"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type seedOptions struct {
	Doctors       int
	Patients      int
	VisitsPerUser int
	Seed          int64
	AdminEmail    string
	Password      string
}

var specializations = []string{
	"General Practice",
	"Cardiology",
	"Dermatology",
	"Pediatrics",
	"Neurology",
	"Orthopedics",
	"Endocrinology",
	"Psychiatry",
}

var bloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

var visitReasons = []string{
	"Routine check-up",
	"Follow-up consultation",
	"Blood pressure review",
	"Prescription renewal",
	"Lab results discussion",
	"Persistent headache",
}

// Seed fills an empty practice with an admin, doctors, patients and a
// visit history. Each patient keeps to one weekday and hour so slot
// suggestions have a pattern to learn from.
func (app *App) Seed(ctx context.Context, opts seedOptions) error {
	c := app.components
	faker := gofakeit.New(uint64(opts.Seed))
	log := app.Log

	admin, err := app.seedAdmin(ctx, opts)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	adminCtx := middleware.ContextWithUser(ctx, admin.ID, admin.Email, entity.RoleIDAdmin, "seed")

	doctors := make([]uuid.UUID, 0, opts.Doctors)
	for i := 0; i < opts.Doctors; i++ {
		specialization := faker.RandomString(specializations)
		doctor, err := c.auth.RegisterDoctor(ctx, &dto.RegisterDoctorRequest{
			Email:          fmt.Sprintf("doctor%02d.%s", i+1, strings.ToLower(faker.Email())),
			Password:       opts.Password,
			FullName:       "Dr. " + faker.Name(),
			LicenseNumber:  fmt.Sprintf("MD-%06d", faker.Number(100000, 999999)),
			Specialization: specialization,
			Biography:      fmt.Sprintf("%s with %d years in practice.", specialization, faker.Number(3, 30)),
		})
		if errors.Is(err, usecase.ErrLicenseAlreadyExists) || errors.Is(err, usecase.ErrEmailAlreadyExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed doctor: %w", err)
		}
		doctors = append(doctors, doctor.ID)
	}
	if len(doctors) == 0 {
		return errors.New("no doctors were seeded")
	}
	log.Infof("Seeded %d doctors", len(doctors))

	now := c.clock.Now()
	visits, invoices := 0, 0
	for i := 0; i < opts.Patients; i++ {
		patient, err := c.auth.RegisterPatient(ctx, &dto.RegisterPatientRequest{
			Email:            fmt.Sprintf("patient%03d.%s", i+1, strings.ToLower(faker.Email())),
			Password:         opts.Password,
			FullName:         faker.Name(),
			PhoneNumber:      faker.Phone(),
			DateOfBirth:      faker.DateRange(now.AddDate(-85, 0, 0), now.AddDate(-18, 0, 0)).Format("2006-01-02"),
			Gender:           faker.RandomString([]string{entity.GenderMale, entity.GenderFemale}),
			Address:          faker.Street() + ", " + faker.City(),
			BloodType:        faker.RandomString(bloodTypes),
			EmergencyContact: faker.Name() + " " + faker.Phone(),
		})
		if errors.Is(err, usecase.ErrEmailAlreadyExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed patient: %w", err)
		}

		doctorID := doctors[faker.Number(0, len(doctors)-1)]
		hour := faker.Number(9, 16)
		weekday := time.Weekday(faker.Number(1, 5))

		for v := 0; v < opts.VisitsPerUser; v++ {
			start := pastWeekday(now, weekday, v+1, hour)
			appointment := &entity.Appointment{
				PatientID:     patient.ID,
				DoctorID:      doctorID,
				StartTime:     start,
				EndTime:       start.Add(app.Config.Scheduling.SlotDuration),
				Status:        entity.AppointmentStatusCompleted,
				Type:          entity.AppointmentTypeInPerson,
				Reason:        faker.RandomString(visitReasons),
				PaymentStatus: entity.PaymentStatusPending,
			}
			if err := c.appointments.Create(ctx, app.DB, appointment); err != nil {
				return fmt.Errorf("seed appointment: %w", err)
			}
			visits++

			billing, err := c.billing.CreateBilling(adminCtx, &dto.CreateBillingRequest{
				PatientID:     patient.ID,
				DoctorID:      &doctorID,
				AppointmentID: &appointment.ID,
				Items: []dto.BillingItemRequest{{
					Service:   "Consultation",
					Quantity:  1,
					UnitPrice: decimal.NewFromInt(int64(faker.Number(50, 250))),
				}},
			})
			if err != nil {
				return fmt.Errorf("seed billing: %w", err)
			}
			invoices++

			// Most invoices are settled, the rest stay open
			if faker.Number(1, 10) <= 7 {
				if _, err := c.billing.RecordPayment(adminCtx, billing.ID, &dto.PaymentRequest{
					Amount: billing.Total,
					Method: faker.RandomString([]string{
						string(entity.PaymentMethodCash),
						string(entity.PaymentMethodCard),
						string(entity.PaymentMethodInsurance),
					}),
				}); err != nil {
					return fmt.Errorf("seed payment: %w", err)
				}
			}
		}
	}

	log.Infof("Seeded %d patients with %d visits and %d invoices", opts.Patients, visits, invoices)
	return nil
}

func (app *App) seedAdmin(ctx context.Context, opts seedOptions) (*entity.User, error) {
	users := app.components.users
	email := strings.ToLower(opts.AdminEmail)

	existing, err := users.FindByEmail(ctx, app.DB, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	active := true
	admin := &entity.User{
		RoleID:   entity.RoleIDAdmin,
		Email:    email,
		Password: string(hash),
		FullName: "Practice Administrator",
		IsActive: &active,
	}
	if err := users.Create(ctx, app.DB, admin); err != nil {
		return nil, err
	}
	app.Log.Infof("Created admin %s", email)
	return admin, nil
}

// pastWeekday returns the given weekday weeksAgo weeks before now at hour.
func pastWeekday(now time.Time, weekday time.Weekday, weeksAgo, hour int) time.Time {
	day := now.AddDate(0, 0, -7*weeksAgo)
	offset := int(weekday - day.Weekday())
	day = day.AddDate(0, 0, offset)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, now.Location())
}
