package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/service"
	"go-healthcare-practice/internal/usecase"
	"go-healthcare-practice/pkg/validator"

	"github.com/google/uuid"
)

func TestAppointmentHandler_CreateAppointment(t *testing.T) {
	doctorID := uuid.New()
	start := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	valid := map[string]interface{}{
		"doctor_id":  doctorID,
		"start_time": start,
		"end_time":   start.Add(30 * time.Minute),
		"type":       "telehealth",
		"reason":     "Follow-up",
	}

	tests := []struct {
		name       string
		body       interface{}
		err        error
		wantStatus int
	}{
		{name: "created", body: valid, wantStatus: http.StatusCreated},
		{name: "malformed body", body: "{", wantStatus: http.StatusBadRequest},
		{name: "missing doctor", body: map[string]interface{}{"start_time": start, "end_time": start.Add(time.Hour), "reason": "x"}, wantStatus: http.StatusBadRequest},
		{name: "end before start", body: map[string]interface{}{"doctor_id": doctorID, "start_time": start, "end_time": start.Add(-time.Hour), "reason": "x"}, wantStatus: http.StatusBadRequest},
		{name: "unknown type", body: map[string]interface{}{"doctor_id": doctorID, "start_time": start, "end_time": start.Add(time.Hour), "reason": "x", "type": "house-call"}, wantStatus: http.StatusBadRequest},
		{name: "slot taken", body: valid, err: usecase.ErrTimeSlotConflict, wantStatus: http.StatusConflict},
		{name: "schedule busy", body: valid, err: usecase.ErrScheduleBusy, wantStatus: http.StatusConflict},
		{name: "in the past", body: valid, err: usecase.ErrAppointmentInPast, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *dto.CreateAppointmentRequest
			stub := &stubAppointmentUsecase{
				create: func(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
					got = req
					if tt.err != nil {
						return nil, tt.err
					}
					return &dto.AppointmentResponse{ID: uuid.New(), DoctorID: req.DoctorID}, nil
				},
			}
			h := NewAppointmentHandler(stub, validator.NewValidator())

			rec, resp := serve(t, http.MethodPost, "/appointments", "/appointments", tt.body, h.CreateAppointment)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusCreated {
				if !resp.Success || got == nil || got.DoctorID != doctorID || got.Type != "telehealth" {
					t.Fatalf("request not forwarded: %+v", got)
				}
			}
			if tt.err != nil && resp.Message != tt.err.Error() {
				t.Fatalf("expected message %q, got %q", tt.err.Error(), resp.Message)
			}
		})
	}
}

func TestAppointmentHandler_ListParsesFilters(t *testing.T) {
	doctorID := uuid.New()
	var got *dto.AppointmentListRequest
	stub := &stubAppointmentUsecase{
		list: func(ctx context.Context, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error) {
			got = req
			return &dto.AppointmentListResponse{Appointments: []dto.AppointmentResponse{{ID: uuid.New()}}, Total: 45}, nil
		},
	}
	h := NewAppointmentHandler(stub, validator.NewValidator())

	target := "/appointments?status=scheduled,confirmed&status=completed&doctor_id=" + doctorID.String() + "&from=2026-03-01&to=2026-03-31T23:59:59Z&limit=10&offset=20"
	rec, resp := serve(t, http.MethodGet, "/appointments", target, nil, h.ListAppointments)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	if len(got.Status) != 3 || got.Status[2] != "completed" {
		t.Fatalf("unexpected statuses %v", got.Status)
	}
	if got.DoctorID == nil || *got.DoctorID != doctorID {
		t.Fatalf("doctor filter not parsed")
	}
	if got.From == nil || !got.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %v", got.From)
	}
	if got.To == nil || got.To.Day() != 31 {
		t.Fatalf("unexpected to %v", got.To)
	}
	if resp.Meta == nil || resp.Meta.Page != 3 || resp.Meta.TotalPages != 5 || resp.Meta.Total != 45 {
		t.Fatalf("unexpected meta %+v", resp.Meta)
	}

	rec, _ = serve(t, http.MethodGet, "/appointments", "/appointments?patient_id=nope", nil, h.ListAppointments)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad patient_id should be rejected, got %d", rec.Code)
	}
}

func TestAppointmentHandler_UpdateStatus(t *testing.T) {
	calls := 0
	stub := &stubAppointmentUsecase{
		updateStatus: func(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error) {
			calls++
			if req.Status == "completed" {
				return nil, usecase.ErrInvalidStatusTransition
			}
			return &dto.AppointmentResponse{ID: id, Status: req.Status}, nil
		},
	}
	h := NewAppointmentHandler(stub, validator.NewValidator())
	pattern := "/appointments/{id}/status"
	id := uuid.New().String()

	tests := []struct {
		name       string
		target     string
		body       interface{}
		wantStatus int
	}{
		{name: "confirm", target: "/appointments/" + id + "/status", body: map[string]string{"status": "confirmed"}, wantStatus: http.StatusOK},
		{name: "cancel needs reason", target: "/appointments/" + id + "/status", body: map[string]string{"status": "cancelled"}, wantStatus: http.StatusBadRequest},
		{name: "cancel with reason", target: "/appointments/" + id + "/status", body: map[string]string{"status": "cancelled", "cancellation_reason": "travel"}, wantStatus: http.StatusOK},
		{name: "scheduled is not a target", target: "/appointments/" + id + "/status", body: map[string]string{"status": "scheduled"}, wantStatus: http.StatusBadRequest},
		{name: "bad transition", target: "/appointments/" + id + "/status", body: map[string]string{"status": "completed"}, wantStatus: http.StatusConflict},
		{name: "bad id", target: "/appointments/42/status", body: map[string]string{"status": "confirmed"}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := serve(t, http.MethodPatch, pattern, tt.target, tt.body, h.UpdateStatus)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}

	if calls != 3 {
		t.Fatalf("only validated requests should reach the usecase, got %d calls", calls)
	}
}

func TestAppointmentHandler_AvailabilityAndSuggestions(t *testing.T) {
	doctorID := uuid.New()
	patientID := uuid.New()
	var gotDate string
	var gotPatient *uuid.UUID
	stub := &stubAppointmentUsecase{
		availability: func(ctx context.Context, id uuid.UUID, date string) (*service.Availability, error) {
			gotDate = date
			if date == "03/03/2026" {
				return nil, usecase.ErrInvalidDate
			}
			return &service.Availability{Date: date, SlotMinutes: 30}, nil
		},
		suggest: func(ctx context.Context, id uuid.UUID, p *uuid.UUID) (*service.Suggestion, error) {
			gotPatient = p
			return &service.Suggestion{}, nil
		},
	}
	h := NewAppointmentHandler(stub, validator.NewValidator())
	base := "/doctors/" + doctorID.String()

	rec, _ := serve(t, http.MethodGet, "/doctors/{id}/availability", base+"/availability?date=2026-03-03", nil, h.GetAvailability)
	if rec.Code != http.StatusOK || gotDate != "2026-03-03" {
		t.Fatalf("expected 200 for %s, got %d", gotDate, rec.Code)
	}

	rec, _ = serve(t, http.MethodGet, "/doctors/{id}/availability", base+"/availability", nil, h.GetAvailability)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing date should be rejected, got %d", rec.Code)
	}

	rec, _ = serve(t, http.MethodGet, "/doctors/{id}/availability", base+"/availability?date=03/03/2026", nil, h.GetAvailability)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date should map to 400, got %d", rec.Code)
	}

	rec, _ = serve(t, http.MethodGet, "/doctors/{id}/suggestions", base+"/suggestions?patient_id="+patientID.String(), nil, h.SuggestSlots)
	if rec.Code != http.StatusOK || gotPatient == nil || *gotPatient != patientID {
		t.Fatalf("patient_id not forwarded, got %d", rec.Code)
	}

	rec, _ = serve(t, http.MethodGet, "/doctors/{id}/suggestions", base+"/suggestions", nil, h.SuggestSlots)
	if rec.Code != http.StatusOK || gotPatient != nil {
		t.Fatalf("patient_id should be optional")
	}
}
