package models

import (
	"time"

	"github.com/tapsnap/tapsnap-backend/pkg/enums"
)

// RefundRequest is the audit trail row created when a refund is requested.
// PSP REFUND notifications advance the most recently created row for the
// transaction.
type RefundRequest struct {
	ID            int64              `gorm:"column:id;primaryKey;autoIncrement"`
	TransactionID int64              `gorm:"column:transaction_id;not null;index"`
	AmountCents   int64              `gorm:"column:amount_cents;not null"`
	Currency      enums.Currency     `gorm:"column:currency;size:3;not null"`
	RequestedBy   string             `gorm:"column:requested_by;size:200;not null"`
	Status        enums.RefundStatus `gorm:"column:status;size:30;not null;default:'refund_requested'"`
	PSPReference  *string            `gorm:"column:psp_reference;size:64"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
}
