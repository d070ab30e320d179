package models

import (
	"time"

	"github.com/tapsnap/tapsnap-backend/pkg/enums"
)

// Transaction records one payment attempt in integer minor units. Rows are
// never deleted; status only moves via the confirm/refund flows or PSP
// notifications.
type Transaction struct {
	ID           int64                   `gorm:"column:id;primaryKey;autoIncrement"`
	MerchantID   int64                   `gorm:"column:merchant_id;not null;index"`
	AmountCents  int64                   `gorm:"column:amount_cents;not null"`
	Currency     enums.Currency          `gorm:"column:currency;size:3;not null;default:'USD'"`
	Status       enums.TransactionStatus `gorm:"column:status;size:30;not null;default:'created'"`
	PSPReference *string                 `gorm:"column:psp_reference;size:64"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
}
