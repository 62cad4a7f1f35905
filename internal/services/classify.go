package services

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// Outcome is the terminal/non-terminal reading of a gateway result code.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePending Outcome = "pending"
	OutcomeFailed  Outcome = "failed"
)

// Result-code ranges documented by the gateway. Codes matching neither
// pattern are treated as failed; the gateway keeps adding rejection codes and
// an unknown code must never be read optimistically.
var (
	successCodes = regexp.MustCompile(`^(000\.000\.|000\.100\.1|000\.[36])`)
	pendingCodes = regexp.MustCompile(`^(000\.200|800\.400\.5|100\.400\.500)`)
)

// Classification is the interpreted form of a gateway response. Fields other
// than Outcome and ResultCode are only set when the payload carried them.
type Classification struct {
	Outcome               Outcome
	ResultCode            string
	ResultDescription     string
	CheckoutID            string
	RegistrationID        string
	MerchantTransactionID string
	EntityID              string
	Amount                decimal.Decimal
	Currency              string
	Raw                   json.RawMessage
}

type gatewayEnvelope struct {
	ID                    string `json:"id"`
	RegistrationID        string `json:"registrationId"`
	MerchantTransactionID string `json:"merchantTransactionId"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	EntityID              string `json:"entityId"`
	Result                struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"result"`
}

// Classify interprets a raw gateway body. A well-formed payload always
// classifies, whatever its code; a payload without a result code is
// ErrMalformedResponse.
func Classify(raw json.RawMessage) (*Classification, error) {
	var envelope gatewayEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if envelope.Result.Code == "" {
		return nil, fmt.Errorf("%w: missing result.code", ErrMalformedResponse)
	}

	cls := &Classification{
		Outcome:               classifyCode(envelope.Result.Code),
		ResultCode:            envelope.Result.Code,
		ResultDescription:     envelope.Result.Description,
		CheckoutID:            envelope.ID,
		RegistrationID:        envelope.RegistrationID,
		MerchantTransactionID: envelope.MerchantTransactionID,
		EntityID:              envelope.EntityID,
		Currency:              envelope.Currency,
		Raw:                   raw,
	}

	if envelope.Amount != "" {
		if amount, err := decimal.NewFromString(envelope.Amount); err == nil {
			cls.Amount = amount
		}
	}

	return cls, nil
}

func classifyCode(code string) Outcome {
	switch {
	case successCodes.MatchString(code):
		return OutcomeSuccess
	case pendingCodes.MatchString(code):
		return OutcomePending
	default:
		return OutcomeFailed
	}
}
