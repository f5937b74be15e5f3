package handler

import (
	"net/http"

	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/usecase"
	"go-healthcare-practice/pkg/response"
)

type DoctorHandler struct {
	doctorUsecase usecase.DoctorUsecase
}

func NewDoctorHandler(doctorUsecase usecase.DoctorUsecase) *DoctorHandler {
	return &DoctorHandler{
		doctorUsecase: doctorUsecase,
	}
}

func (h *DoctorHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	req := dto.DoctorListRequest{Specialization: r.URL.Query().Get("specialization")}
	req.Limit, req.Offset = pagination(r)

	result, err := h.doctorUsecase.ListDoctors(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, "Failed to get doctors")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Doctors retrieved successfully", result.Doctors, response.NewMeta(req.Limit, req.Offset, result.Total))
}

func (h *DoctorHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	doctor, err := h.doctorUsecase.GetDoctor(r.Context(), doctorID)
	if err != nil {
		response.FromError(w, err, "Failed to get doctor")
		return
	}

	response.Success(w, http.StatusOK, "Doctor retrieved successfully", doctor)
}
