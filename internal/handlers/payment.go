package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/example/hyperpay/internal/middleware"
	"github.com/example/hyperpay/internal/models"
	"github.com/example/hyperpay/internal/services"
	"github.com/example/hyperpay/internal/utils"
)

// PaymentService is the slice of the checkout service the handlers need.
type PaymentService interface {
	Checkout(ctx context.Context, payer services.Payer, opts services.CheckoutOptions) (*services.CheckoutResult, error)
	PaymentStatus(ctx context.Context, id, resourcePath string) (*services.StatusResult, error)
	RecurringPayment(ctx context.Context, registrationID string, amount decimal.Decimal, checkoutID string) (*services.RecurringResult, error)
	ListTransactions(ctx context.Context, payerID uuid.UUID, p utils.Pagination) ([]models.Transaction, int64, error)
}

// PaymentHandler manages payment endpoints.
type PaymentHandler struct {
	svc PaymentService
}

func NewPaymentHandler(svc PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

type billingRequest struct {
	Street1  string `json:"street1"`
	Street2  string `json:"street2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`
	Postcode string `json:"postcode"`
}

type checkoutRequest struct {
	Amount                float64         `json:"amount"`
	Currency              string          `json:"currency"`
	Brand                 string          `json:"brand"`
	MerchantTransactionID string          `json:"merchantTransactionId"`
	Email                 string          `json:"email"`
	GivenName             string          `json:"givenName"`
	Surname               string          `json:"surname"`
	Billing               *billingRequest `json:"billing"`
	RegisterCard          bool            `json:"registerCard"`
	RedirectURL           string          `json:"redirectUrl"`
	Trackable             json.RawMessage `json:"trackable"`
}

type recurringRequest struct {
	RegistrationID string  `json:"registrationId"`
	Amount         float64 `json:"amount"`
	CheckoutID     string  `json:"checkoutId"`
}

// Checkout creates a gateway checkout session for the authenticated payer.
func (h *PaymentHandler) Checkout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Amount <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid amount")
	}

	payerID, ok := middleware.GetCurrentPayerID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "missing payer identity")
	}

	payer := services.Payer{
		ID:        payerID,
		Email:     req.Email,
		GivenName: req.GivenName,
		Surname:   req.Surname,
	}

	opts := services.CheckoutOptions{
		MerchantTransactionID: req.MerchantTransactionID,
		Brand:                 req.Brand,
		Amount:                decimal.NewFromFloat(req.Amount),
		Currency:              req.Currency,
		RegisterCard:          req.RegisterCard,
		UserAgent:             c.Get("User-Agent"),
		ShopperRedirectURL:    req.RedirectURL,
		Trackable:             datatypes.JSON(req.Trackable),
	}
	if req.Billing != nil {
		opts.Billing = &services.Billing{
			Street1:  req.Billing.Street1,
			Street2:  req.Billing.Street2,
			City:     req.Billing.City,
			State:    req.Billing.State,
			Country:  req.Billing.Country,
			Postcode: req.Billing.Postcode,
		}
	}

	result, err := h.svc.Checkout(c.Context(), payer, opts)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(result)
}

// Status polls the gateway for a checkout's result and resolves the local
// transaction. The id may be either the merchant transaction id or the
// gateway checkout id; resourcePath is carried over from the shopper
// redirect when present.
func (h *PaymentHandler) Status(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "id is required")
	}

	result, err := h.svc.PaymentStatus(c.Context(), id, c.Query("resourcePath"))
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(result)
}

// Recurring charges a previously registered card.
func (h *PaymentHandler) Recurring(c *fiber.Ctx) error {
	var req recurringRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.RegistrationID) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "registrationId is required")
	}
	if req.Amount <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid amount")
	}

	result, err := h.svc.RecurringPayment(c.Context(), req.RegistrationID, decimal.NewFromFloat(req.Amount), req.CheckoutID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(result)
}

// ListTransactions returns the authenticated payer's transaction history.
func (h *PaymentHandler) ListTransactions(c *fiber.Ctx) error {
	payerID, ok := middleware.GetCurrentPayerID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "missing payer identity")
	}

	pagination := utils.ParsePagination(c)
	txns, total, err := h.svc.ListTransactions(c.Context(), payerID, pagination)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"transactions": txns,
		"total":        total,
		"page":         pagination.Page,
		"limit":        pagination.Limit,
	})
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "invalid checkout id")
	case errors.Is(err, services.ErrTransport):
		return fiber.NewError(fiber.StatusBadGateway, "payment gateway unreachable")
	case errors.Is(err, services.ErrMalformedResponse):
		return fiber.NewError(fiber.StatusBadGateway, "unexpected payment gateway response")
	case errors.Is(err, services.ErrConfiguration):
		return fiber.NewError(fiber.StatusInternalServerError, "payment gateway misconfigured")
	default:
		return err
	}
}
