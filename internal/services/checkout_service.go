package services

import (
	"context"
	"encoding/json"
	"log"
	"net/url"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/example/hyperpay/internal/models"
	"github.com/example/hyperpay/internal/utils"
)

// merchantTransactionIDLength is the size of generated idempotency tokens.
const merchantTransactionIDLength = 64

type gatewayDoer interface {
	Post(ctx context.Context, path string, params url.Values) (*GatewayResult, error)
	Get(ctx context.Context, path string, params url.Values) (*GatewayResult, error)
	BaseURL() string
}

type transactionStore interface {
	Create(ctx context.Context, payerID uuid.UUID, cls *Classification, metadata datatypes.JSON) (*models.Transaction, error)
	FindByIDOrCheckoutID(ctx context.Context, id string) (*models.Transaction, error)
	ResolveStatus(ctx context.Context, txn *models.Transaction, cls *Classification) error
	ListByPayer(ctx context.Context, payerID uuid.UUID, p utils.Pagination) ([]models.Transaction, int64, error)
	RecordRecurringPayment(checkoutID string, cls *Classification)
}

// CheckoutService drives the full checkout lifecycle: brand resolution,
// request building, the gateway call, response classification and
// persistence.
type CheckoutService struct {
	cfg     GatewayConfig
	gateway gatewayDoer
	store   transactionStore
	brands  *BrandResolver
}

func NewCheckoutService(cfg GatewayConfig, gateway gatewayDoer, store transactionStore, brands *BrandResolver) *CheckoutService {
	return &CheckoutService{cfg: cfg, gateway: gateway, store: store, brands: brands}
}

// CheckoutOptions are the caller-supplied inputs for one checkout.
type CheckoutOptions struct {
	// MerchantTransactionID is reused verbatim when supplied; a fresh
	// 64-character token is generated otherwise.
	MerchantTransactionID string
	Brand                 string
	Amount                decimal.Decimal
	Currency              string
	Billing               *Billing
	RegisterCard          bool
	UserAgent             string
	ShopperRedirectURL    string
	Trackable             datatypes.JSON
}

// CheckoutResult is the caller-facing outcome of a checkout creation.
type CheckoutResult struct {
	TransactionID      string `json:"transaction_id"`
	CheckoutID         string `json:"checkout_id"`
	GatewayScriptURL   string `json:"gateway_script_url"`
	ShopperRedirectURL string `json:"shopper_redirect_url"`
	Status             string `json:"status"`
}

// StatusResult bundles a status poll's classification with the updated local
// transaction.
type StatusResult struct {
	Status      string              `json:"status"`
	ResultCode  string              `json:"result_code"`
	Transaction *models.Transaction `json:"transaction"`
}

// RecurringResult reports a recurring charge's gateway outcome.
type RecurringResult struct {
	Status     Outcome         `json:"status"`
	ResultCode string          `json:"result_code"`
	Raw        json.RawMessage `json:"raw"`
}

// Checkout creates a gateway checkout session and persists the pending
// transaction. Transport and malformed-response failures propagate without
// persisting anything; any structured gateway response, rejections included,
// produces exactly one pending row.
func (s *CheckoutService) Checkout(ctx context.Context, payer Payer, opts CheckoutOptions) (*CheckoutResult, error) {
	token := opts.MerchantTransactionID
	if token == "" {
		token = utils.RandomToken(merchantTransactionIDLength)
	}

	brand := ParseBrand(opts.Brand)
	entityID, err := s.brands.EntityID(brand)
	if err != nil {
		return nil, err
	}

	currency := opts.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}

	rc := RequestContext{
		MerchantTransactionID: token,
		EntityID:              entityID,
		UserAgent:             opts.UserAgent,
		RegisterCard:          opts.RegisterCard,
	}

	result, err := s.gateway.Post(ctx, "/v1/checkouts", CheckoutParams(opts.Amount, currency, rc, payer, opts.Billing))
	if err != nil {
		return nil, err
	}

	cls, err := Classify(result.Body)
	if err != nil {
		return nil, err
	}

	// The response to a checkout creation only carries the result and the
	// checkout id; fill the rest from the request so the persisted row is
	// complete.
	cls.MerchantTransactionID = token
	cls.EntityID = entityID
	if cls.Amount.IsZero() {
		cls.Amount = opts.Amount
	}
	if cls.Currency == "" {
		cls.Currency = currency
	}

	// The gateway has accepted the checkout at this point; persist with a
	// fresh context so a caller abort cannot lose the record.
	txn, err := s.store.Create(context.Background(), payer.ID, cls, opts.Trackable)
	if err != nil {
		log.Printf("[hyperpay] checkout %s created on gateway but not persisted: %v", cls.CheckoutID, err)
		return nil, err
	}

	redirectURL := opts.ShopperRedirectURL
	if redirectURL == "" {
		redirectURL = s.cfg.ShopperRedirectURL
	}

	return &CheckoutResult{
		TransactionID:      txn.ID,
		CheckoutID:         txn.CheckoutID,
		GatewayScriptURL:   scriptURL(s.gateway.BaseURL(), txn.CheckoutID),
		ShopperRedirectURL: redirectURL,
		Status:             txn.Status,
	}, nil
}

// PaymentStatus polls the gateway for a checkout's result and resolves the
// matching local transaction. The lookup key may be either the merchant
// transaction id or the gateway checkout id; resourcePath defaults to the
// checkout payment path when the caller does not carry one from the redirect.
func (s *CheckoutService) PaymentStatus(ctx context.Context, id, resourcePath string) (*StatusResult, error) {
	txn, err := s.store.FindByIDOrCheckoutID(ctx, id)
	if err != nil {
		return nil, err
	}

	entityID, err := s.brands.EntityID(Brand(txn.Brand))
	if err != nil {
		return nil, err
	}

	if resourcePath == "" {
		resourcePath = "/v1/checkouts/" + txn.CheckoutID + "/payment"
	}

	result, err := s.gateway.Get(ctx, resourcePath, StatusParams(entityID))
	if err != nil {
		return nil, err
	}

	cls, err := Classify(result.Body)
	if err != nil {
		return nil, err
	}

	if err := s.store.ResolveStatus(ctx, txn, cls); err != nil {
		return nil, err
	}

	return &StatusResult{
		Status:      txn.Status,
		ResultCode:  cls.ResultCode,
		Transaction: txn,
	}, nil
}

// RecurringPayment charges a previously registered card. Local state is not
// mutated; the outcome is logged against the originating checkout id and
// returned as-is.
func (s *CheckoutService) RecurringPayment(ctx context.Context, registrationID string, amount decimal.Decimal, checkoutID string) (*RecurringResult, error) {
	params := RecurringParams(amount, s.cfg.Currency, s.brands.defaultID, s.cfg.ShopperRedirectURL, checkoutID)

	result, err := s.gateway.Post(ctx, "/v1/registrations/"+registrationID+"/payments", params)
	if err != nil {
		return nil, err
	}

	cls, err := Classify(result.Body)
	if err != nil {
		return nil, err
	}

	s.store.RecordRecurringPayment(checkoutID, cls)

	return &RecurringResult{
		Status:     cls.Outcome,
		ResultCode: cls.ResultCode,
		Raw:        cls.Raw,
	}, nil
}

// ListTransactions returns the payer's transaction history.
func (s *CheckoutService) ListTransactions(ctx context.Context, payerID uuid.UUID, p utils.Pagination) ([]models.Transaction, int64, error) {
	return s.store.ListByPayer(ctx, payerID, p)
}

func scriptURL(base, checkoutID string) string {
	return base + "/v1/paymentWidgets.js?checkoutId=" + url.QueryEscape(checkoutID)
}
