package models

import (
	"time"

	"github.com/tapsnap/tapsnap-backend/pkg/enums"
)

// Payout is a scheduled transfer of settled funds to a merchant.
type Payout struct {
	ID           int64              `gorm:"column:id;primaryKey;autoIncrement"`
	MerchantID   int64              `gorm:"column:merchant_id;not null;index"`
	AmountCents  int64              `gorm:"column:amount_cents;not null"`
	Currency     enums.Currency     `gorm:"column:currency;size:3;not null;default:'USD'"`
	Status       enums.PayoutStatus `gorm:"column:status;size:30;not null;default:'scheduled'"`
	ScheduledFor *time.Time         `gorm:"column:scheduled_for"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}
