package adyenwebhook

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tapsnap/tapsnap-backend/pkg/db/models"
	"github.com/tapsnap/tapsnap-backend/pkg/enums"
	"github.com/tapsnap/tapsnap-backend/pkg/logger"
)

// Reconciler applies normalized notification items to transaction and refund
// rows. Effects are overwrite-based, so redelivered or out-of-order items
// converge on the same end state instead of compounding.
type Reconciler struct {
	repo Repository
	logg *logger.Logger
}

func NewReconciler(repo Repository, logg *logger.Logger) (*Reconciler, error) {
	if repo == nil {
		return nil, errors.New("webhook repository required")
	}
	return &Reconciler{repo: repo, logg: logg}, nil
}

// Apply runs every item against the bound repository and returns how many
// were handled. Items that do not resolve to a transaction, or carry an
// unrecognized event code, are skipped; storage errors abort.
func (r *Reconciler) Apply(ctx context.Context, tx *gorm.DB, items []NotificationItem) (int, error) {
	repo := r.repo.WithTx(tx)
	handled := 0

	for _, item := range items {
		applied, err := r.applyItem(ctx, repo, item)
		if err != nil {
			return handled, err
		}
		if applied {
			handled++
		}
	}

	return handled, nil
}

func (r *Reconciler) applyItem(ctx context.Context, repo Repository, item NotificationItem) (bool, error) {
	if !item.Resolvable() {
		r.skip(ctx, item, "merchant reference not recognized")
		return false, nil
	}
	if !item.EventCode.IsHandled() {
		r.skip(ctx, item, "event code not handled")
		return false, nil
	}

	txn, err := repo.FindTransaction(ctx, item.TransactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.skip(ctx, item, "transaction not found")
			return false, nil
		}
		return false, err
	}

	switch item.EventCode {
	case enums.EventCodeAuthorisation:
		return true, r.applyAuthorisation(ctx, repo, txn, item)
	case enums.EventCodeCapture:
		return true, r.applyCapture(ctx, repo, txn, item)
	case enums.EventCodeRefund:
		return true, r.applyRefund(ctx, repo, txn, item)
	}
	return false, nil
}

// applyAuthorisation moves the transaction to authorised or failed. The PSP
// is the source of truth post-authorization, so a supplied amount and
// currency overwrite what the merchant recorded.
func (r *Reconciler) applyAuthorisation(ctx context.Context, repo Repository, txn *models.Transaction, item NotificationItem) error {
	if item.Success {
		txn.Status = enums.TransactionStatusAuthorised
	} else {
		txn.Status = enums.TransactionStatusFailed
	}
	setPSPReference(txn, item.PSPReference)
	if item.HasAmount {
		txn.AmountCents = item.AmountCents
		txn.Currency = item.Currency
	}
	return repo.SaveTransaction(ctx, txn)
}

func (r *Reconciler) applyCapture(ctx context.Context, repo Repository, txn *models.Transaction, item NotificationItem) error {
	if item.Success {
		txn.Status = enums.TransactionStatusCaptured
	} else {
		txn.Status = enums.TransactionStatusFailed
	}
	setPSPReference(txn, item.PSPReference)
	return repo.SaveTransaction(ctx, txn)
}

// applyRefund settles the transaction and advances the latest refund row.
// A failed refund leaves the transaction status alone but still records the
// PSP reference and marks the refund row failed.
func (r *Reconciler) applyRefund(ctx context.Context, repo Repository, txn *models.Transaction, item NotificationItem) error {
	if item.Success {
		txn.Status = enums.TransactionStatusRefunded
	}
	setPSPReference(txn, item.PSPReference)
	if err := repo.SaveTransaction(ctx, txn); err != nil {
		return err
	}

	refund, err := repo.LatestRefundRequest(ctx, txn.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.skip(ctx, item, "no refund request row to advance")
			return nil
		}
		return err
	}

	if item.Success {
		refund.Status = enums.RefundStatusRefunded
	} else {
		refund.Status = enums.RefundStatusFailed
	}
	if item.PSPReference != "" {
		ref := item.PSPReference
		refund.PSPReference = &ref
	}
	return repo.SaveRefundRequest(ctx, refund)
}

func setPSPReference(txn *models.Transaction, ref string) {
	if ref == "" {
		return
	}
	value := ref
	txn.PSPReference = &value
}

func (r *Reconciler) skip(ctx context.Context, item NotificationItem, reason string) {
	if r.logg == nil {
		return
	}
	ctx = r.logg.WithFields(ctx, map[string]any{
		"event_code":         item.EventCode.String(),
		"merchant_reference": item.MerchantReference,
		"reason":             reason,
	})
	r.logg.Info(ctx, "webhook.item_skipped")
}
