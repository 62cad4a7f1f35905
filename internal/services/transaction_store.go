package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/hyperpay/internal/models"
	"github.com/example/hyperpay/internal/utils"
)

// Transaction statuses. pending moves to success or failed exactly once;
// terminal rows are never transitioned again.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// TransactionStore owns the transaction state machine and its persistence.
type TransactionStore struct {
	db     *gorm.DB
	brands *BrandResolver
}

func NewTransactionStore(db *gorm.DB, brands *BrandResolver) *TransactionStore {
	return &TransactionStore{db: db, brands: brands}
}

// Create inserts a new pending transaction for the payer. Any prior pending
// transaction for the same (payer, brand) pair is abandoned and replaced; the
// lock plus delete plus insert run as one database transaction so concurrent
// checkouts cannot leave two pending rows behind.
func (s *TransactionStore) Create(ctx context.Context, payerID uuid.UUID, cls *Classification, metadata datatypes.JSON) (*models.Transaction, error) {
	brand := s.brands.BrandForEntityID(cls.EntityID)

	txn := models.Transaction{
		ID:            cls.MerchantTransactionID,
		PayerID:       payerID,
		CheckoutID:    cls.CheckoutID,
		Brand:         string(brand),
		Status:        StatusPending,
		Amount:        cls.Amount,
		Currency:      cls.Currency,
		Data:          datatypes.JSON(cls.Raw),
		TrackableData: metadata,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize creates per (payer, brand): a row lock alone cannot stop
		// two first-time checkouts from both inserting.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", payerID.String()+"/"+string(brand)).Error; err != nil {
			return err
		}

		res := tx.Where("payer_id = ? AND brand = ? AND status = ?", payerID, string(brand), StatusPending).
			Delete(&models.Transaction{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			log.Printf("[hyperpay] abandoned %d pending transaction(s) for payer %s brand %s", res.RowsAffected, payerID, brand)
		}

		return tx.Create(&txn).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create transaction %s: %w", txn.ID, err)
	}

	return &txn, nil
}

// FindByIDOrCheckoutID resolves a transaction by its merchant transaction id
// first, falling back to the gateway checkout id.
func (s *TransactionStore) FindByIDOrCheckoutID(ctx context.Context, id string) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.WithContext(ctx).
		Where("id = ? OR checkout_id = ?", id, id).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	return &txn, nil
}

// ResolveStatus applies a status classification to an existing transaction.
// Success and failure are terminal; a pending classification only refreshes
// the stored gateway payload. A row already in a terminal state is left
// untouched, whatever the gateway says on a later poll.
func (s *TransactionStore) ResolveStatus(ctx context.Context, txn *models.Transaction, cls *Classification) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Transaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", txn.ID).
			First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, txn.ID)
			}
			return err
		}

		if current.Status != StatusPending {
			txn.Status = current.Status
			txn.Data = current.Data
			return nil
		}

		updates := map[string]any{"data": datatypes.JSON(cls.Raw)}
		switch cls.Outcome {
		case OutcomeSuccess:
			updates["status"] = StatusSuccess
		case OutcomeFailed:
			updates["status"] = StatusFailed
		}

		if err := tx.Model(&models.Transaction{}).Where("id = ?", txn.ID).Updates(updates).Error; err != nil {
			return err
		}

		if status, ok := updates["status"].(string); ok {
			txn.Status = status
		}
		txn.Data = datatypes.JSON(cls.Raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("resolve transaction %s: %w", txn.ID, err)
	}

	return nil
}

// ListByPayer returns the payer's transactions, newest first.
func (s *TransactionStore) ListByPayer(ctx context.Context, payerID uuid.UUID, p utils.Pagination) ([]models.Transaction, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("payer_id = ?", payerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []models.Transaction
	if err := query.
		Order("created_at DESC").
		Offset(p.Offset).
		Limit(p.Limit).
		Find(&txns).Error; err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}

// RecordRecurringPayment logs the outcome of a recurring charge against the
// originating checkout id. Recurring charges do not create transaction rows;
// the log line is the audit linkage.
func (s *TransactionStore) RecordRecurringPayment(checkoutID string, cls *Classification) {
	log.Printf("[hyperpay] recurring payment for checkout %s: %s (code %s)", checkoutID, cls.Outcome, cls.ResultCode)
}
