package handler

import (
	"encoding/json"
	"net/http"

	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/usecase"
	"go-healthcare-practice/pkg/response"
	"go-healthcare-practice/pkg/validator"
)

type BillingHandler struct {
	billingUsecase usecase.BillingUsecase
	validator      *validator.CustomValidator
}

func NewBillingHandler(billingUsecase usecase.BillingUsecase, validator *validator.CustomValidator) *BillingHandler {
	return &BillingHandler{
		billingUsecase: billingUsecase,
		validator:      validator,
	}
}

// CreateBilling handles issuing an invoice
// @Summary Create invoice
// @Description Totals are computed server side from the line items
// @Tags Billing
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateBillingRequest true "Create Billing Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /billings [post]
func (h *BillingHandler) CreateBilling(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBillingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	billing, err := h.billingUsecase.CreateBilling(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, "Failed to create billing")
		return
	}

	response.Success(w, http.StatusCreated, "Billing created successfully", billing)
}

// GetBilling handles getting one invoice
// @Summary Get invoice
// @Tags Billing
// @Security BearerAuth
// @Produce json
// @Param id path string true "Billing ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /billings/{id} [get]
func (h *BillingHandler) GetBilling(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid billing ID")
		return
	}

	billing, err := h.billingUsecase.GetBilling(r.Context(), id)
	if err != nil {
		response.FromError(w, err, "Failed to get billing")
		return
	}

	response.Success(w, http.StatusOK, "Billing retrieved successfully", billing)
}

// ListBillings handles listing invoices visible to the caller
// @Summary List invoices
// @Tags Billing
// @Security BearerAuth
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param patient_id query string false "Patient ID"
// @Param doctor_id query string false "Doctor ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Response
// @Router /billings [get]
func (h *BillingHandler) ListBillings(w http.ResponseWriter, r *http.Request) {
	req := dto.BillingListRequest{Status: queryList(r, "status")}
	req.Limit, req.Offset = pagination(r)

	var err error
	if req.PatientID, err = queryUUID(r, "patient_id"); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if req.DoctorID, err = queryUUID(r, "doctor_id"); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.billingUsecase.ListBillings(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, "Failed to list billings")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Billings retrieved successfully", result.Billings, response.NewMeta(req.Limit, req.Offset, result.Total))
}

// UpdateBilling handles editing an unpaid invoice
// @Summary Update invoice
// @Tags Billing
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Billing ID"
// @Param request body dto.UpdateBillingRequest true "Update Billing Request"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /billings/{id} [put]
func (h *BillingHandler) UpdateBilling(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid billing ID")
		return
	}

	var req dto.UpdateBillingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	billing, err := h.billingUsecase.UpdateBilling(r.Context(), id, &req)
	if err != nil {
		response.FromError(w, err, "Failed to update billing")
		return
	}

	response.Success(w, http.StatusOK, "Billing updated successfully", billing)
}

// RecordPayment handles applying a payment
// @Summary Record payment
// @Tags Billing
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Billing ID"
// @Param request body dto.PaymentRequest true "Payment Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /billings/{id}/payments [post]
func (h *BillingHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid billing ID")
		return
	}

	var req dto.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	billing, err := h.billingUsecase.RecordPayment(r.Context(), id, &req)
	if err != nil {
		response.FromError(w, err, "Failed to record payment")
		return
	}

	response.Success(w, http.StatusOK, "Payment recorded successfully", billing)
}

// CancelBilling handles voiding an unpaid invoice
// @Summary Cancel invoice
// @Tags Billing
// @Security BearerAuth
// @Produce json
// @Param id path string true "Billing ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /billings/{id}/cancel [post]
func (h *BillingHandler) CancelBilling(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid billing ID")
		return
	}

	billing, err := h.billingUsecase.CancelBilling(r.Context(), id)
	if err != nil {
		response.FromError(w, err, "Failed to cancel billing")
		return
	}

	response.Success(w, http.StatusOK, "Billing cancelled successfully", billing)
}
