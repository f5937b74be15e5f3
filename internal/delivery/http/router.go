package http

import (
	"context"
	"net/http"
	"time"

	"go-healthcare-practice/internal/delivery/http/handler"
	"go-healthcare-practice/internal/delivery/http/middleware"
	"go-healthcare-practice/pkg/response"

	"github.com/gorilla/mux"
)

// HealthCheck reports whether a backing store is reachable.
type HealthCheck func(ctx context.Context) error

type Router struct {
	router               *mux.Router
	authHandler          *handler.AuthHandler
	appointmentHandler   *handler.AppointmentHandler
	doctorHandler        *handler.DoctorHandler
	billingHandler       *handler.BillingHandler
	medicalRecordHandler *handler.MedicalRecordHandler
	auditLogHandler      *handler.AuditLogHandler
	authMiddleware       *middleware.AuthMiddleware
	corsMiddleware       *middleware.CORSMiddleware
	requestMiddleware    *middleware.RequestMiddleware
	healthChecks         map[string]HealthCheck
}

func NewRouter(
	authHandler *handler.AuthHandler,
	appointmentHandler *handler.AppointmentHandler,
	doctorHandler *handler.DoctorHandler,
	billingHandler *handler.BillingHandler,
	medicalRecordHandler *handler.MedicalRecordHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	requestMiddleware *middleware.RequestMiddleware,
	healthChecks map[string]HealthCheck,
) *Router {
	return &Router{
		router:               mux.NewRouter(),
		authHandler:          authHandler,
		appointmentHandler:   appointmentHandler,
		doctorHandler:        doctorHandler,
		billingHandler:       billingHandler,
		medicalRecordHandler: medicalRecordHandler,
		auditLogHandler:      auditLogHandler,
		authMiddleware:       authMiddleware,
		corsMiddleware:       corsMiddleware,
		requestMiddleware:    requestMiddleware,
		healthChecks:         healthChecks,
	}
}

func (r *Router) Setup() http.Handler {
	r.router.Use(r.requestMiddleware.Recovery)
	r.router.Use(r.requestMiddleware.ClientInfo)
	r.router.Use(r.requestMiddleware.Logger)

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register/patient", r.authHandler.RegisterPatient).Methods(http.MethodPost)
	auth.HandleFunc("/register/doctor", r.authHandler.RegisterDoctor).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Everything below requires a valid access token
	protected := api.NewRoute().Subrouter()
	protected.Use(r.authMiddleware.Authenticate)

	protected.HandleFunc("/auth/logout", r.authHandler.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/auth/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Appointments
	protected.Handle("/appointments", only(middleware.RequireAdminOrPatient, r.appointmentHandler.CreateAppointment)).Methods(http.MethodPost)
	protected.HandleFunc("/appointments", r.appointmentHandler.ListAppointments).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)
	protected.Handle("/appointments/{id}", only(middleware.RequireAdminOrPatient, r.appointmentHandler.UpdateAppointment)).Methods(http.MethodPut)
	protected.HandleFunc("/appointments/{id}/status", r.appointmentHandler.UpdateStatus).Methods(http.MethodPatch)
	protected.HandleFunc("/appointments/{id}/telehealth-link", r.appointmentHandler.GetTelehealthLink).Methods(http.MethodGet)

	// Doctors
	protected.HandleFunc("/doctors", r.doctorHandler.ListDoctors).Methods(http.MethodGet)
	protected.HandleFunc("/doctors/{id}", r.doctorHandler.GetDoctor).Methods(http.MethodGet)
	protected.HandleFunc("/doctors/{id}/availability", r.appointmentHandler.GetAvailability).Methods(http.MethodGet)
	protected.HandleFunc("/doctors/{id}/suggestions", r.appointmentHandler.SuggestSlots).Methods(http.MethodGet)

	// Billing
	protected.Handle("/billings", only(middleware.RequireAdminOrDoctor, r.billingHandler.CreateBilling)).Methods(http.MethodPost)
	protected.HandleFunc("/billings", r.billingHandler.ListBillings).Methods(http.MethodGet)
	protected.HandleFunc("/billings/{id}", r.billingHandler.GetBilling).Methods(http.MethodGet)
	protected.Handle("/billings/{id}", only(middleware.RequireAdminOrDoctor, r.billingHandler.UpdateBilling)).Methods(http.MethodPut)
	protected.Handle("/billings/{id}/payments", only(middleware.RequireAdminOrPatient, r.billingHandler.RecordPayment)).Methods(http.MethodPost)
	protected.Handle("/billings/{id}/cancel", only(middleware.RequireAdminOrDoctor, r.billingHandler.CancelBilling)).Methods(http.MethodPost)

	// Medical records
	protected.Handle("/medical-records", only(middleware.RequireDoctor, r.medicalRecordHandler.CreateMedicalRecord)).Methods(http.MethodPost)
	protected.HandleFunc("/medical-records/{id}", r.medicalRecordHandler.GetMedicalRecord).Methods(http.MethodGet)
	protected.HandleFunc("/patients/{id}/medical-records", r.medicalRecordHandler.ListPatientRecords).Methods(http.MethodGet)

	// Audit trail (admin only)
	protected.Handle("/audit-logs", only(middleware.RequireAdmin, r.auditLogHandler.ListAuditLogs)).Methods(http.MethodGet)
	protected.Handle("/audit-logs/{id}", only(middleware.RequireAdmin, r.auditLogHandler.GetAuditLog)).Methods(http.MethodGet)

	// Preflight requests are answered before route matching
	return r.corsMiddleware.Handle(r.router)
}

func only(guard func(http.Handler) http.Handler, h http.HandlerFunc) http.Handler {
	return guard(h)
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	healthy := true
	for name, check := range r.healthChecks {
		if err := check(ctx); err != nil {
			status[name] = "unavailable"
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		status["status"] = "degraded"
		response.JSON(w, http.StatusServiceUnavailable, status)
		return
	}
	response.JSON(w, http.StatusOK, status)
}
