package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/service"
	"go-healthcare-practice/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type stubAppointmentUsecase struct {
	create       func(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	list         func(ctx context.Context, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error)
	updateStatus func(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error)
	availability func(ctx context.Context, doctorID uuid.UUID, date string) (*service.Availability, error)
	suggest      func(ctx context.Context, doctorID uuid.UUID, patientID *uuid.UUID) (*service.Suggestion, error)
}

func (s *stubAppointmentUsecase) CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	return s.create(ctx, req)
}

func (s *stubAppointmentUsecase) GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	return &dto.AppointmentResponse{ID: id}, nil
}

func (s *stubAppointmentUsecase) ListAppointments(ctx context.Context, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error) {
	return s.list(ctx, req)
}

func (s *stubAppointmentUsecase) UpdateAppointment(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error) {
	return &dto.AppointmentResponse{ID: id}, nil
}

func (s *stubAppointmentUsecase) UpdateStatus(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error) {
	return s.updateStatus(ctx, id, req)
}

func (s *stubAppointmentUsecase) GetTelehealthLink(ctx context.Context, id uuid.UUID) (*dto.TelehealthLinkResponse, error) {
	return &dto.TelehealthLinkResponse{AppointmentID: id}, nil
}

func (s *stubAppointmentUsecase) GetAvailability(ctx context.Context, doctorID uuid.UUID, date string) (*service.Availability, error) {
	return s.availability(ctx, doctorID, date)
}

func (s *stubAppointmentUsecase) SuggestSlots(ctx context.Context, doctorID uuid.UUID, patientID *uuid.UUID) (*service.Suggestion, error) {
	return s.suggest(ctx, doctorID, patientID)
}

type stubBillingUsecase struct {
	create  func(ctx context.Context, req *dto.CreateBillingRequest) (*dto.BillingResponse, error)
	pay     func(ctx context.Context, id uuid.UUID, req *dto.PaymentRequest) (*dto.BillingResponse, error)
	list    func(ctx context.Context, req *dto.BillingListRequest) (*dto.BillingListResponse, error)
	getErr  error
	cancels int
}

func (s *stubBillingUsecase) CreateBilling(ctx context.Context, req *dto.CreateBillingRequest) (*dto.BillingResponse, error) {
	return s.create(ctx, req)
}

func (s *stubBillingUsecase) GetBilling(ctx context.Context, id uuid.UUID) (*dto.BillingResponse, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &dto.BillingResponse{ID: id}, nil
}

func (s *stubBillingUsecase) ListBillings(ctx context.Context, req *dto.BillingListRequest) (*dto.BillingListResponse, error) {
	return s.list(ctx, req)
}

func (s *stubBillingUsecase) UpdateBilling(ctx context.Context, id uuid.UUID, req *dto.UpdateBillingRequest) (*dto.BillingResponse, error) {
	return &dto.BillingResponse{ID: id}, nil
}

func (s *stubBillingUsecase) RecordPayment(ctx context.Context, id uuid.UUID, req *dto.PaymentRequest) (*dto.BillingResponse, error) {
	return s.pay(ctx, id, req)
}

func (s *stubBillingUsecase) CancelBilling(ctx context.Context, id uuid.UUID) (*dto.BillingResponse, error) {
	s.cancels++
	return &dto.BillingResponse{ID: id, Status: "cancelled"}, nil
}

// serve routes a single request through a mux so path variables resolve.
func serve(t *testing.T, method, pattern, target string, body interface{}, h http.HandlerFunc) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	router := mux.NewRouter()
	router.HandleFunc(pattern, h).Methods(method)

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp response.Response
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}
