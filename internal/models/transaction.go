package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Transaction is the durable record of a payment attempt. The primary key is
// the merchant transaction id sent to the gateway, so a row can always be
// correlated with the gateway-side checkout it belongs to.
type Transaction struct {
	ID            string          `gorm:"primaryKey;size:64" json:"id"`
	PayerID       uuid.UUID       `gorm:"type:uuid;index:idx_transactions_payer_brand_status" json:"payer_id"`
	CheckoutID    string          `gorm:"column:checkout_id;index" json:"checkout_id"`
	Brand         string          `gorm:"index:idx_transactions_payer_brand_status" json:"brand"`
	Status        string          `gorm:"index:idx_transactions_payer_brand_status" json:"status"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	Currency      string          `gorm:"size:3" json:"currency"`
	Data          datatypes.JSON  `gorm:"type:jsonb" json:"data"`
	TrackableData datatypes.JSON  `gorm:"type:jsonb" json:"trackable_data"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
