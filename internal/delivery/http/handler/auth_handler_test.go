package handler

import (
	"context"
	"net/http"
	"testing"

	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/usecase"
	"go-healthcare-practice/pkg/validator"
)

type stubAuthUsecase struct {
	err     error
	logouts []dto.LogoutRequest
}

func (s *stubAuthUsecase) RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.UserResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.UserResponse{Email: req.Email, Role: "patient"}, nil
}

func (s *stubAuthUsecase) RegisterDoctor(ctx context.Context, req *dto.RegisterDoctorRequest) (*dto.UserResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.UserResponse{Email: req.Email, Role: "doctor"}, nil
}

func (s *stubAuthUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.TokenResponse{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}, nil
}

func (s *stubAuthUsecase) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	s.logouts = append(s.logouts, *req)
	return s.err
}

func (s *stubAuthUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.TokenResponse{AccessToken: "a2", RefreshToken: "r2"}, nil
}

func (s *stubAuthUsecase) GetCurrentUser(ctx context.Context) (*dto.UserResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.UserResponse{Email: "me@mail.test"}, nil
}

func TestAuthHandler_StatusMapping(t *testing.T) {
	login := map[string]string{"email": "maria@mail.test", "password": "s3cret-pass"}

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "ok", wantStatus: http.StatusOK},
		{name: "bad password", err: usecase.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized},
		{name: "inactive account", err: usecase.ErrAccountInactive, wantStatus: http.StatusForbidden},
		{name: "revoked token", err: usecase.ErrTokenRevoked, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&stubAuthUsecase{err: tt.err}, validator.NewValidator())
			rec, _ := serve(t, http.MethodPost, "/auth/login", "/auth/login", login, h.Login)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAuthHandler_Register(t *testing.T) {
	h := NewAuthHandler(&stubAuthUsecase{}, validator.NewValidator())

	patient := map[string]string{
		"email":         "maria@mail.test",
		"password":      "s3cret-pass",
		"full_name":     "Maria Santos",
		"date_of_birth": "1990-04-12",
		"gender":        "F",
	}
	rec, _ := serve(t, http.MethodPost, "/auth/register/patient", "/auth/register/patient", patient, h.RegisterPatient)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	patient["date_of_birth"] = "12/04/1990"
	rec, resp := serve(t, http.MethodPost, "/auth/register/patient", "/auth/register/patient", patient, h.RegisterPatient)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	fields, ok := resp.Error.(map[string]interface{})
	if !ok || fields["date_of_birth"] == nil {
		t.Fatalf("expected a date_of_birth field error, got %v", resp.Error)
	}

	dup := NewAuthHandler(&stubAuthUsecase{err: usecase.ErrLicenseAlreadyExists}, validator.NewValidator())
	doctor := map[string]string{
		"email":          "kim@clinic.test",
		"password":       "s3cret-pass",
		"full_name":      "Dr. Kim",
		"license_number": "MD-1001",
		"specialization": "Dermatology",
	}
	rec, _ = serve(t, http.MethodPost, "/auth/register/doctor", "/auth/register/doctor", doctor, dup.RegisterDoctor)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAuthHandler_LogoutBodyIsOptional(t *testing.T) {
	stub := &stubAuthUsecase{}
	h := NewAuthHandler(stub, validator.NewValidator())

	rec, _ := serve(t, http.MethodPost, "/auth/logout", "/auth/logout", nil, h.Logout)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec, _ = serve(t, http.MethodPost, "/auth/logout", "/auth/logout", map[string]string{"refresh_token": "r"}, h.Logout)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(stub.logouts) != 2 || stub.logouts[1].RefreshToken != "r" {
		t.Fatalf("unexpected logout calls %+v", stub.logouts)
	}

	unauth := NewAuthHandler(&stubAuthUsecase{err: usecase.ErrUnauthenticated}, validator.NewValidator())
	rec, _ = serve(t, http.MethodGet, "/auth/me", "/auth/me", nil, unauth.GetCurrentUser)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
