package handler

import (
	"encoding/json"
	"net/http"

	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/usecase"
	"go-healthcare-practice/pkg/response"
	"go-healthcare-practice/pkg/validator"
)

type MedicalRecordHandler struct {
	recordUsecase usecase.MedicalRecordUsecase
	validator     *validator.CustomValidator
}

func NewMedicalRecordHandler(recordUsecase usecase.MedicalRecordUsecase, validator *validator.CustomValidator) *MedicalRecordHandler {
	return &MedicalRecordHandler{
		recordUsecase: recordUsecase,
		validator:     validator,
	}
}

// CreateMedicalRecord handles writing a visit record
// @Summary Create medical record
// @Tags Medical Records
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateMedicalRecordRequest true "Create Medical Record Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /medical-records [post]
func (h *MedicalRecordHandler) CreateMedicalRecord(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMedicalRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	record, err := h.recordUsecase.CreateMedicalRecord(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, "Failed to create medical record")
		return
	}

	response.Success(w, http.StatusCreated, "Medical record created successfully", record)
}

// GetMedicalRecord handles reading one record
// @Summary Get medical record
// @Tags Medical Records
// @Security BearerAuth
// @Produce json
// @Param id path string true "Medical Record ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /medical-records/{id} [get]
func (h *MedicalRecordHandler) GetMedicalRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid medical record ID")
		return
	}

	record, err := h.recordUsecase.GetMedicalRecord(r.Context(), id)
	if err != nil {
		response.FromError(w, err, "Failed to get medical record")
		return
	}

	response.Success(w, http.StatusOK, "Medical record retrieved successfully", record)
}

// ListPatientRecords handles a patient's record history
// @Summary List a patient's medical records
// @Tags Medical Records
// @Security BearerAuth
// @Produce json
// @Param id path string true "Patient ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /patients/{id}/medical-records [get]
func (h *MedicalRecordHandler) ListPatientRecords(w http.ResponseWriter, r *http.Request) {
	patientID, err := pathUUID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid patient ID")
		return
	}

	limit, offset := pagination(r)
	result, err := h.recordUsecase.ListPatientRecords(r.Context(), patientID, limit, offset)
	if err != nil {
		response.FromError(w, err, "Failed to list medical records")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Medical records retrieved successfully", result.Records, response.NewMeta(limit, offset, result.Total))
}
