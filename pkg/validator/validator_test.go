package validator

import "testing"

type paymentRequest struct {
	Amount string `json:"amount" validate:"required"`
	Method string `json:"payment_method" validate:"required,oneof=cash card insurance"`
	Last4  string `json:"card_last4" validate:"omitempty,len=4"`
}

func TestFormatValidationErrors(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&paymentRequest{Method: "cheque", Last4: "12"})
	if err == nil {
		t.Fatalf("expected validation error")
	}

	formatted := v.FormatValidationErrors(err)
	expected := map[string]string{
		"amount":         "amount is required",
		"payment_method": "payment_method must be one of: cash card insurance",
		"card_last4":     "card_last4 must be exactly 4 characters",
	}

	if len(formatted) != len(expected) {
		t.Fatalf("expected %d errors, got %v", len(expected), formatted)
	}
	for field, msg := range expected {
		if formatted[field] != msg {
			t.Fatalf("field %s: expected %q, got %q", field, msg, formatted[field])
		}
	}
}

func TestValidRequestPasses(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(&paymentRequest{Amount: "10.00", Method: "card", Last4: "4242"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
