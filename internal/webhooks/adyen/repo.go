package adyenwebhook

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tapsnap/tapsnap-backend/pkg/db"
	"github.com/tapsnap/tapsnap-backend/pkg/db/models"
	"github.com/tapsnap/tapsnap-backend/pkg/enums"
)

// ErrDuplicateEvent signals the event key already exists in the store.
// Concurrent redeliveries racing past the existence check land here via the
// unique index, never via a read-then-write sequence.
var ErrDuplicateEvent = errors.New("webhook event already recorded")

const eventKeyConstraint = "ux_webhook_events_event_key"

// Repository is the persistence surface of the webhook pipeline: the
// append-only event store plus the transaction and refund rows the
// reconciler mutates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EventExists(ctx context.Context, eventKey string) (bool, error)
	AppendEvent(ctx context.Context, event *models.WebhookEvent) error
	FindTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	SaveTransaction(ctx context.Context, txn *models.Transaction) error
	LatestRefundRequest(ctx context.Context, transactionID int64) (*models.RefundRequest, error)
	SaveRefundRequest(ctx context.Context, refund *models.RefundRequest) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a webhook repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) EventExists(ctx context.Context, eventKey string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("event_key = ?", eventKey).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AppendEvent inserts the event, relying on the unique index to arbitrate
// concurrent deliveries of the same key. Returns ErrDuplicateEvent on
// conflict.
func (r *repository) AppendEvent(ctx context.Context, event *models.WebhookEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		if db.IsUniqueViolation(err, eventKeyConstraint) {
			return ErrDuplicateEvent
		}
		return err
	}
	return nil
}

func (r *repository) FindTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) SaveTransaction(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Save(txn).Error
}

// LatestRefundRequest returns the most recently created refund row for the
// transaction, preferring rows still awaiting settlement. The heuristic is
// ambiguous when several refunds are in flight at once; a refund correlation
// id carried end-to-end would remove the guesswork.
func (r *repository) LatestRefundRequest(ctx context.Context, transactionID int64) (*models.RefundRequest, error) {
	var refund models.RefundRequest
	err := r.db.WithContext(ctx).
		Where("transaction_id = ? AND status = ?", transactionID, enums.RefundStatusRequested).
		Order("created_at DESC, id DESC").
		First(&refund).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = r.db.WithContext(ctx).
			Where("transaction_id = ?", transactionID).
			Order("created_at DESC, id DESC").
			First(&refund).Error
	}
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *repository) SaveRefundRequest(ctx context.Context, refund *models.RefundRequest) error {
	return r.db.WithContext(ctx).Save(refund).Error
}
