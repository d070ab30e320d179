package models

import "time"

// Merchant is a seller account on the platform. Immutable after signup
// except for the PSP platform account linkage.
type Merchant struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name            string    `gorm:"column:name;size:200;not null"`
	Email           string    `gorm:"column:email;size:200;not null;uniqueIndex"`
	PlatformAccount *string   `gorm:"column:platform_account;size:100"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`

	Transactions []Transaction `gorm:"foreignKey:MerchantID"`
}
