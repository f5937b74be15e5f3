package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-healthcare-practice/config"
	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/delivery/http/handler"
	"go-healthcare-practice/internal/delivery/http/middleware"
	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/repository/fake"
	"go-healthcare-practice/pkg/jwt"
	"go-healthcare-practice/pkg/validator"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
)

type stubDoctorUsecase struct{}

func (stubDoctorUsecase) ListDoctors(ctx context.Context, req *dto.DoctorListRequest) (*dto.DoctorListResponse, error) {
	return &dto.DoctorListResponse{Doctors: []dto.DoctorResponse{}}, nil
}

func (stubDoctorUsecase) GetDoctor(ctx context.Context, id uuid.UUID) (*dto.DoctorResponse, error) {
	return &dto.DoctorResponse{ID: id}, nil
}

type routerFixture struct {
	handler http.Handler
	jwt     *jwt.JWTService
	tokens  *fake.TokenStore
}

func newRouterFixture(checks map[string]HealthCheck) *routerFixture {
	log, _ := test.NewNullLogger()
	jwtService := jwt.NewJWTService(config.JWTConfig{
		Secret:        "router-secret",
		Issuer:        "practice-api",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: time.Hour,
	})
	tokens := fake.NewTokenStore()
	v := validator.NewValidator()

	// Handlers whose usecase is nil are only reached through guards that reject
	router := NewRouter(
		handler.NewAuthHandler(nil, v),
		handler.NewAppointmentHandler(nil, v),
		handler.NewDoctorHandler(stubDoctorUsecase{}),
		handler.NewBillingHandler(nil, v),
		handler.NewMedicalRecordHandler(nil, v),
		handler.NewAuditLogHandler(nil),
		middleware.NewAuthMiddleware(jwtService, tokens, log),
		middleware.NewCORSMiddleware(),
		middleware.NewRequestMiddleware(log),
		checks,
	)
	return &routerFixture{handler: router.Setup(), jwt: jwtService, tokens: tokens}
}

func (f *routerFixture) tokenFor(t *testing.T, roleID int) string {
	t.Helper()
	userID := uuid.New()
	token, tokenID, err := f.jwt.GenerateAccessToken(userID, "user@mail.test", roleID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if err := f.tokens.Save(context.Background(), jwt.AccessToken, userID, tokenID, time.Minute); err != nil {
		t.Fatalf("save token: %v", err)
	}
	return token
}

func (f *routerFixture) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_RoleGuards(t *testing.T) {
	f := newRouterFixture(nil)
	id := uuid.New().String()

	tests := []struct {
		name       string
		method     string
		path       string
		roleID     int
		wantStatus int
	}{
		{name: "doctor cannot book", method: http.MethodPost, path: "/api/v1/appointments", roleID: entity.RoleIDDoctor, wantStatus: http.StatusForbidden},
		{name: "doctor cannot reschedule", method: http.MethodPut, path: "/api/v1/appointments/" + id, roleID: entity.RoleIDDoctor, wantStatus: http.StatusForbidden},
		{name: "patient cannot invoice", method: http.MethodPost, path: "/api/v1/billings", roleID: entity.RoleIDPatient, wantStatus: http.StatusForbidden},
		{name: "patient cannot edit invoice", method: http.MethodPut, path: "/api/v1/billings/" + id, roleID: entity.RoleIDPatient, wantStatus: http.StatusForbidden},
		{name: "patient cannot cancel invoice", method: http.MethodPost, path: "/api/v1/billings/" + id + "/cancel", roleID: entity.RoleIDPatient, wantStatus: http.StatusForbidden},
		{name: "doctor cannot pay", method: http.MethodPost, path: "/api/v1/billings/" + id + "/payments", roleID: entity.RoleIDDoctor, wantStatus: http.StatusForbidden},
		{name: "admin cannot write records", method: http.MethodPost, path: "/api/v1/medical-records", roleID: entity.RoleIDAdmin, wantStatus: http.StatusForbidden},
		{name: "doctor cannot read audit", method: http.MethodGet, path: "/api/v1/audit-logs", roleID: entity.RoleIDDoctor, wantStatus: http.StatusForbidden},
		{name: "patient cannot read audit entry", method: http.MethodGet, path: "/api/v1/audit-logs/7", roleID: entity.RoleIDPatient, wantStatus: http.StatusForbidden},
		{name: "anyone lists doctors", method: http.MethodGet, path: "/api/v1/doctors", roleID: entity.RoleIDPatient, wantStatus: http.StatusOK},
		{name: "anyone gets a doctor", method: http.MethodGet, path: "/api/v1/doctors/" + id, roleID: entity.RoleIDDoctor, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, f.tokenFor(t, tt.roleID))
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouter_Authentication(t *testing.T) {
	f := newRouterFixture(nil)

	if rec := f.do(http.MethodGet, "/api/v1/doctors", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token should be 401, got %d", rec.Code)
	}

	// Signed but never stored, as after logout
	revoked, _, _ := f.jwt.GenerateAccessToken(uuid.New(), "gone@mail.test", entity.RoleIDAdmin)
	if rec := f.do(http.MethodGet, "/api/v1/doctors", revoked); rec.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token should be 401, got %d", rec.Code)
	}

	refresh, _, _ := f.jwt.GenerateRefreshToken(uuid.New(), "r@mail.test", entity.RoleIDAdmin)
	if rec := f.do(http.MethodGet, "/api/v1/doctors", refresh); rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token should not authenticate, got %d", rec.Code)
	}

	f.tokens.Err = errors.New("redis down")
	if rec := f.do(http.MethodGet, "/api/v1/doctors", f.tokenForUnchecked(t)); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("token store outage should be 503, got %d", rec.Code)
	}
}

func (f *routerFixture) tokenForUnchecked(t *testing.T) string {
	t.Helper()
	token, _, err := f.jwt.GenerateAccessToken(uuid.New(), "user@mail.test", entity.RoleIDAdmin)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func TestRouter_HealthAndPreflight(t *testing.T) {
	healthy := newRouterFixture(map[string]HealthCheck{
		"database": func(ctx context.Context) error { return nil },
	})
	rec := healthy.do(http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatalf("expected a request id header")
	}

	degraded := newRouterFixture(map[string]HealthCheck{
		"database": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return errors.New("dial tcp: refused") },
	})
	if rec := degraded.do(http.MethodGet, "/api/v1/health", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	rec = healthy.do(http.MethodOptions, "/api/v1/billings", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight should be answered, got %d", rec.Code)
	}
}
