package converter

import (
	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/domain/entity"
)

func BillingToResponse(billing *entity.Billing) *dto.BillingResponse {
	if billing == nil {
		return nil
	}

	response := &dto.BillingResponse{
		ID:            billing.ID,
		InvoiceNumber: billing.InvoiceNumber,
		PatientID:     billing.PatientID,
		DoctorID:      billing.DoctorID,
		AppointmentID: billing.AppointmentID,
		Patient:       UserToSummary(billing.Patient),
		Doctor:        UserToSummary(billing.Doctor),
		Date:          billing.Date,
		DueDate:       billing.DueDate,
		Status:        string(billing.Status),
		Items:         make([]dto.BillingItemResponse, len(billing.Items)),
		Subtotal:      billing.Subtotal,
		Tax:           billing.Tax,
		Discount:      billing.Discount,
		Total:         billing.Total,
		AmountPaid:    billing.AmountPaid,
		Balance:       billing.Balance,
		Notes:         billing.Notes,
		Version:       billing.Version,
		CreatedAt:     billing.CreatedAt,
		UpdatedAt:     billing.UpdatedAt,
	}

	for i, item := range billing.Items {
		response.Items[i] = dto.BillingItemResponse{
			Position:    item.Position,
			Service:     item.Service,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			Tax:         item.Tax,
			Total:       item.Total,
		}
	}

	if billing.PaymentMethod != nil {
		method := string(*billing.PaymentMethod)
		response.PaymentMethod = &method
	}

	if d := billing.PaymentDetails; d != nil {
		response.PaymentDetails = &dto.PaymentDetailsResponse{
			TransactionID: d.TransactionID,
			CardLast4:     d.CardLast4,
			PaymentDate:   d.PaymentDate,
			Gateway:       d.Gateway,
			ReceiptURL:    d.ReceiptURL,
		}
	}

	return response
}

func BillingsToResponses(billings []entity.Billing) []dto.BillingResponse {
	responses := make([]dto.BillingResponse, len(billings))
	for i := range billings {
		responses[i] = *BillingToResponse(&billings[i])
	}
	return responses
}

// BillingItemsFromRequest copies request lines; totals are recomputed later
func BillingItemsFromRequest(items []dto.BillingItemRequest) []entity.BillingItem {
	out := make([]entity.BillingItem, len(items))
	for i, item := range items {
		out[i] = entity.BillingItem{
			Position:    i + 1,
			Service:     item.Service,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			Tax:         item.Tax,
			Total:       item.Total,
		}
	}
	return out
}
