package services

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestClassifyCodes(t *testing.T) {
	cases := []struct {
		code string
		want Outcome
	}{
		{"000.000.000", OutcomeSuccess},
		{"000.000.100", OutcomeSuccess},
		{"000.100.110", OutcomeSuccess},
		{"000.300.000", OutcomeSuccess},
		{"000.600.000", OutcomeSuccess},
		{"000.200.000", OutcomePending},
		{"000.200.100", OutcomePending},
		{"800.400.500", OutcomePending},
		{"100.400.500", OutcomePending},
		{"800.100.151", OutcomeFailed},
		{"000.400.101", OutcomeFailed},
		{"100.100.101", OutcomeFailed},
		{"999.999.999", OutcomeFailed}, // unknown codes read conservatively
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			body, _ := json.Marshal(map[string]any{
				"id":     "checkout-1",
				"result": map[string]string{"code": tc.code},
			})
			cls, err := Classify(body)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if cls.Outcome != tc.want {
				t.Fatalf("outcome for %s = %s, want %s", tc.code, cls.Outcome, tc.want)
			}
		})
	}
}

func TestClassifyExtractsFields(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "checkout-9",
		"registrationId": "reg-4",
		"merchantTransactionId": "txn-7",
		"amount": "100.00",
		"currency": "SAR",
		"entityId": "entity-mada",
		"result": {"code": "000.000.000", "description": "Transaction succeeded"}
	}`)

	cls, err := Classify(raw)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if cls.CheckoutID != "checkout-9" {
		t.Errorf("CheckoutID = %q", cls.CheckoutID)
	}
	if cls.RegistrationID != "reg-4" {
		t.Errorf("RegistrationID = %q", cls.RegistrationID)
	}
	if cls.MerchantTransactionID != "txn-7" {
		t.Errorf("MerchantTransactionID = %q", cls.MerchantTransactionID)
	}
	if cls.EntityID != "entity-mada" {
		t.Errorf("EntityID = %q", cls.EntityID)
	}
	if cls.Amount.StringFixed(2) != "100.00" {
		t.Errorf("Amount = %s", cls.Amount)
	}
	if cls.Currency != "SAR" {
		t.Errorf("Currency = %q", cls.Currency)
	}
	if cls.ResultDescription != "Transaction succeeded" {
		t.Errorf("ResultDescription = %q", cls.ResultDescription)
	}
	if string(cls.Raw) != string(raw) {
		t.Error("Raw payload must pass through unchanged")
	}
}

func TestClassifyMalformed(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing result", `{"id": "checkout-1"}`},
		{"missing code", `{"id": "checkout-1", "result": {"description": "x"}}`},
		{"wrong shape", `[1, 2, 3]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Classify(json.RawMessage(tc.body)); !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}
