package models

import "time"

// WebhookEvent is the append-only audit record of one accepted PSP delivery.
// RawBody keeps the request bytes exactly as received; the unique index on
// EventKey is the deduplication barrier for concurrent redeliveries.
type WebhookEvent struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Provider  string    `gorm:"column:provider;size:50;not null"`
	EventKey  string    `gorm:"column:event_key;size:256;not null;uniqueIndex:ux_webhook_events_event_key"`
	Signature string    `gorm:"column:signature;size:128"`
	RawBody   []byte    `gorm:"column:raw_body;not null"`
	Headers   string    `gorm:"column:headers"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
