package service

import (
	"time"

	"go-healthcare-practice/config"
	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/repository/fake"

	"github.com/google/uuid"
)

func ts(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func testScheduling() config.SchedulingConfig {
	return config.DefaultScheduling(time.UTC)
}

func seedDoctor(users *fake.UserRepository) uuid.UUID {
	return users.Put(entity.User{
		RoleID:        entity.RoleIDDoctor,
		Email:         "ana.ruiz@clinic.test",
		FullName:      "Dr. Ana Ruiz",
		DoctorProfile: &entity.DoctorProfile{LicenseNumber: "LIC-001", Specialization: "Cardiology"},
	})
}

func seedPatient(users *fake.UserRepository) uuid.UUID {
	return users.Put(entity.User{
		RoleID:   entity.RoleIDPatient,
		Email:    "li.wei@mail.test",
		FullName: "Li Wei",
	})
}

func appointment(doctorID, patientID uuid.UUID, start string, minutes int, status entity.AppointmentStatus) entity.Appointment {
	s := ts(start)
	return entity.Appointment{
		ID:        uuid.New(),
		DoctorID:  doctorID,
		PatientID: patientID,
		StartTime: s,
		EndTime:   s.Add(time.Duration(minutes) * time.Minute),
		Status:    status,
		Type:      entity.AppointmentTypeInPerson,
		Reason:    "follow-up",
	}
}

func slotStarts(slots []entity.TimeSlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Start.UTC().Format(time.RFC3339)
	}
	return out
}
