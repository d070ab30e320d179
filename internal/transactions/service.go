package transactions

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tapsnap/tapsnap-backend/internal/merchants"
	"github.com/tapsnap/tapsnap-backend/pkg/db/models"
	"github.com/tapsnap/tapsnap-backend/pkg/enums"
	pkgerrors "github.com/tapsnap/tapsnap-backend/pkg/errors"
)

// Service defines the merchant-facing transaction operations. Status writes
// here go through the transition table; only PSP notifications bypass it.
type Service interface {
	Create(ctx context.Context, input CreateTransactionInput) (*models.Transaction, error)
	Get(ctx context.Context, id int64) (*models.Transaction, error)
	List(ctx context.Context, filter ListFilter) ([]models.Transaction, error)
	Confirm(ctx context.Context, input ConfirmInput) (*models.Transaction, error)
	RequestRefund(ctx context.Context, input RefundRequestInput) (*models.RefundRequest, error)
	ExportCSV(ctx context.Context, w io.Writer, filter ListFilter) error
}

// CreateTransactionInput captures a new payment attempt.
type CreateTransactionInput struct {
	MerchantID  int64
	AmountCents int64
	Currency    string
}

// ConfirmInput applies a synchronous PSP confirmation result.
type ConfirmInput struct {
	TransactionID int64
	Status        string
	PSPReference  string
}

// RefundRequestInput opens a refund for a settled transaction.
type RefundRequestInput struct {
	TransactionID int64
	AmountCents   int64
	RequestedBy   string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo         Repository
	merchantRepo merchants.Repository
	txRunner     txRunner
}

type ServiceParams struct {
	Repo              Repository
	MerchantRepo      merchants.Repository
	TransactionRunner txRunner
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("transaction repository required")
	}
	if params.MerchantRepo == nil {
		return nil, errors.New("merchant repository required")
	}
	if params.TransactionRunner == nil {
		return nil, errors.New("transaction runner required")
	}
	return &service{
		repo:         params.Repo,
		merchantRepo: params.MerchantRepo,
		txRunner:     params.TransactionRunner,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateTransactionInput) (*models.Transaction, error) {
	if input.AmountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}
	currency, err := enums.ParseCurrency(input.Currency)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unrecognized currency")
	}

	if _, err := s.merchantRepo.FindByID(ctx, input.MerchantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}

	txn := &models.Transaction{
		MerchantID:  input.MerchantID,
		AmountCents: input.AmountCents,
		Currency:    currency,
		Status:      enums.TransactionStatusCreated,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
	}
	return txn, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Transaction, error) {
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return txn, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Transaction, error) {
	txns, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return txns, nil
}

// Confirm applies a synchronous confirmation outcome, checked against the
// transition table so a settled transaction cannot be rewound by the API.
func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*models.Transaction, error) {
	status, err := enums.ParseTransactionStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unrecognized transaction status")
	}

	txn, err := s.Get(ctx, input.TransactionID)
	if err != nil {
		return nil, err
	}

	if txn.Status != status {
		if !txn.Status.CanTransitionTo(status) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				"transition from "+txn.Status.String()+" to "+status.String()+" is not allowed")
		}
		txn.Status = status
	}
	if ref := strings.TrimSpace(input.PSPReference); ref != "" {
		txn.PSPReference = &ref
	}

	if err := s.repo.Update(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update transaction")
	}
	return txn, nil
}

// RequestRefund opens a refund row and moves the transaction to
// refund_requested in one commit.
func (s *service) RequestRefund(ctx context.Context, input RefundRequestInput) (*models.RefundRequest, error) {
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	if strings.TrimSpace(input.RequestedBy) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requester identity is required")
	}

	var refund *models.RefundRequest
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		txn, err := repo.FindByID(ctx, input.TransactionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
		}
		if input.AmountCents > txn.AmountCents {
			return pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds transaction amount")
		}
		if txn.Status != enums.TransactionStatusRefundRequested {
			if !txn.Status.CanTransitionTo(enums.TransactionStatusRefundRequested) {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					"transaction in state "+txn.Status.String()+" cannot be refunded")
			}
			txn.Status = enums.TransactionStatusRefundRequested
			if err := repo.Update(ctx, txn); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update transaction")
			}
		}

		refund = &models.RefundRequest{
			TransactionID: txn.ID,
			AmountCents:   input.AmountCents,
			Currency:      txn.Currency,
			RequestedBy:   strings.TrimSpace(input.RequestedBy),
			Status:        enums.RefundStatusRequested,
		}
		if err := repo.CreateRefundRequest(ctx, refund); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

var csvHeader = []string{"id", "merchant_id", "amount_cents", "currency", "status", "psp_reference", "created_at"}

// ExportCSV streams the filtered transactions as CSV rows.
func (s *service) ExportCSV(ctx context.Context, w io.Writer, filter ListFilter) error {
	txns, err := s.List(ctx, filter)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}
	for _, txn := range txns {
		ref := ""
		if txn.PSPReference != nil {
			ref = *txn.PSPReference
		}
		record := []string{
			strconv.FormatInt(txn.ID, 10),
			strconv.FormatInt(txn.MerchantID, 10),
			strconv.FormatInt(txn.AmountCents, 10),
			txn.Currency.String(),
			txn.Status.String(),
			ref,
			txn.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv row")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush csv")
	}
	return nil
}
