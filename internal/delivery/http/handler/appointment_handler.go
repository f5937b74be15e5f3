package handler

import (
	"encoding/json"
	"net/http"

	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/usecase"
	"go-healthcare-practice/pkg/response"
	"go-healthcare-practice/pkg/validator"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, validator *validator.CustomValidator) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
	}
}

// CreateAppointment handles booking a new appointment
// @Summary Book an appointment
// @Description Book a time slot with a doctor. Overlapping bookings are rejected.
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateAppointmentRequest true "Create Appointment Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments [post]
func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.CreateAppointment(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, "Failed to create appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment created successfully", appointment)
}

// GetAppointment handles getting one appointment
// @Summary Get appointment
// @Tags Appointments
// @Security BearerAuth
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid appointment ID")
		return
	}

	appointment, err := h.appointmentUsecase.GetAppointment(r.Context(), id)
	if err != nil {
		response.FromError(w, err, "Failed to get appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", appointment)
}

// ListAppointments handles listing appointments visible to the caller
// @Summary List appointments
// @Description Patients see their own, doctors see their schedule, admins see all
// @Tags Appointments
// @Security BearerAuth
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param doctor_id query string false "Doctor ID"
// @Param patient_id query string false "Patient ID"
// @Param from query string false "Start of range (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "End of range (RFC3339 or YYYY-MM-DD)"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Response
// @Router /appointments [get]
func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	req := dto.AppointmentListRequest{Status: queryList(r, "status")}
	req.Limit, req.Offset = pagination(r)

	var err error
	if req.DoctorID, err = queryUUID(r, "doctor_id"); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if req.PatientID, err = queryUUID(r, "patient_id"); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if req.From, err = queryTime(r, "from"); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if req.To, err = queryTime(r, "to"); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.appointmentUsecase.ListAppointments(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, "Failed to list appointments")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Appointments retrieved successfully", result.Appointments, response.NewMeta(req.Limit, req.Offset, result.Total))
}

// UpdateAppointment handles rescheduling and editing
// @Summary Update appointment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body dto.UpdateAppointmentRequest true "Update Appointment Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments/{id} [put]
func (h *AppointmentHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid appointment ID")
		return
	}

	var req dto.UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.UpdateAppointment(r.Context(), id, &req)
	if err != nil {
		response.FromError(w, err, "Failed to update appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment updated successfully", appointment)
}

// UpdateStatus handles status transitions
// @Summary Change appointment status
// @Description Confirm, complete, cancel or mark an appointment as no-show
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body dto.UpdateAppointmentStatusRequest true "Status Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments/{id}/status [patch]
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid appointment ID")
		return
	}

	var req dto.UpdateAppointmentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.UpdateStatus(r.Context(), id, &req)
	if err != nil {
		response.FromError(w, err, "Failed to update appointment status")
		return
	}

	response.Success(w, http.StatusOK, "Appointment status updated successfully", appointment)
}

// GetTelehealthLink handles fetching the video session link
// @Summary Get telehealth link
// @Tags Appointments
// @Security BearerAuth
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /appointments/{id}/telehealth-link [get]
func (h *AppointmentHandler) GetTelehealthLink(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid appointment ID")
		return
	}

	link, err := h.appointmentUsecase.GetTelehealthLink(r.Context(), id)
	if err != nil {
		response.FromError(w, err, "Failed to get telehealth link")
		return
	}

	response.Success(w, http.StatusOK, "Telehealth link retrieved successfully", link)
}

// GetAvailability handles a doctor's free slots for one day
// @Summary Get doctor availability
// @Tags Doctors
// @Security BearerAuth
// @Produce json
// @Param id path string true "Doctor ID"
// @Param date query string true "Day (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /doctors/{id}/availability [get]
func (h *AppointmentHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, err := pathUUID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid doctor ID")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		response.ValidationError(w, map[string]string{"date": "date is required"})
		return
	}

	availability, err := h.appointmentUsecase.GetAvailability(r.Context(), doctorID, date)
	if err != nil {
		response.FromError(w, err, "Failed to get availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", availability)
}

// SuggestSlots handles slot suggestions based on visit history
// @Summary Suggest appointment slots
// @Tags Doctors
// @Security BearerAuth
// @Produce json
// @Param id path string true "Doctor ID"
// @Param patient_id query string false "Patient ID (staff only)"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /doctors/{id}/suggestions [get]
func (h *AppointmentHandler) SuggestSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := pathUUID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid doctor ID")
		return
	}

	patientID, err := queryUUID(r, "patient_id")
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	suggestion, err := h.appointmentUsecase.SuggestSlots(r.Context(), doctorID, patientID)
	if err != nil {
		response.FromError(w, err, "Failed to suggest slots")
		return
	}

	response.Success(w, http.StatusOK, "Suggestions retrieved successfully", suggestion)
}
