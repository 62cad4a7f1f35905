package services

import (
	"net/url"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payer identifies who a checkout is created for.
type Payer struct {
	ID        uuid.UUID
	Email     string
	GivenName string
	Surname   string
}

// Billing carries optional billing address fields. Only fields with values
// are emitted into the request.
type Billing struct {
	Street1  string
	Street2  string
	City     string
	State    string
	Country  string
	Postcode string
}

// RequestContext is the per-operation request state: the idempotency token,
// the resolved entity identifier and the per-checkout flags. It is rebuilt
// for every operation, never shared.
type RequestContext struct {
	MerchantTransactionID string
	EntityID              string
	UserAgent             string
	RegisterCard          bool
}

// CheckoutParams builds the form body for the checkout-creation call.
func CheckoutParams(amount decimal.Decimal, currency string, rc RequestContext, payer Payer, billing *Billing) url.Values {
	v := url.Values{}
	v.Set("entityId", rc.EntityID)
	v.Set("amount", amount.StringFixed(2))
	v.Set("currency", currency)
	v.Set("paymentType", "DB")
	v.Set("merchantTransactionId", rc.MerchantTransactionID)

	setIfPresent(v, "customer.email", payer.Email)
	setIfPresent(v, "customer.givenName", payer.GivenName)
	setIfPresent(v, "customer.surname", payer.Surname)

	if billing != nil {
		setIfPresent(v, "billing.street1", billing.Street1)
		setIfPresent(v, "billing.street2", billing.Street2)
		setIfPresent(v, "billing.city", billing.City)
		setIfPresent(v, "billing.state", billing.State)
		setIfPresent(v, "billing.country", billing.Country)
		setIfPresent(v, "billing.postcode", billing.Postcode)
	}

	if rc.RegisterCard {
		v.Set("createRegistration", "true")
	}

	setIfPresent(v, "customParameters[SHOPPER_user_agent]", rc.UserAgent)

	return v
}

// StatusParams builds the query for the payment-status lookup. The gateway
// authenticates the call by entity id; no other parameters are sent.
func StatusParams(entityID string) url.Values {
	v := url.Values{}
	v.Set("entityId", entityID)
	return v
}

// RecurringParams builds the form body for a recurring charge against a
// stored registration. The originating checkout id doubles as the merchant
// transaction id so the charge stays correlated with the registration it came
// from.
func RecurringParams(amount decimal.Decimal, currency, entityID, shopperRedirectURL, checkoutID string) url.Values {
	v := url.Values{}
	v.Set("entityId", entityID)
	v.Set("amount", amount.StringFixed(2))
	v.Set("currency", currency)
	v.Set("paymentType", "DB")
	v.Set("standingInstruction.source", "MIT")
	v.Set("standingInstruction.mode", "REPEATED")
	v.Set("standingInstruction.type", "UNSCHEDULED")
	v.Set("merchantTransactionId", checkoutID)
	setIfPresent(v, "shopperResultUrl", shopperRedirectURL)
	return v
}

func setIfPresent(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
