package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tapsnap/tapsnap-backend/internal/transactions"
	"github.com/tapsnap/tapsnap-backend/pkg/db/models"
	"github.com/tapsnap/tapsnap-backend/pkg/enums"
	pkgerrors "github.com/tapsnap/tapsnap-backend/pkg/errors"
)

// Service simulates a checkout against the stubbed PSP: it creates a
// transaction and immediately confirms it as authorised with a test
// reference, which is what the sandbox PSP would do synchronously.
type Service interface {
	Simulate(ctx context.Context, input SimulateInput) (*models.Transaction, error)
}

// SimulateInput takes the amount as a decimal string the way a checkout form
// submits it. Conversion to minor units is exact; float rounding never
// touches money.
type SimulateInput struct {
	MerchantID int64
	Amount     string
	Currency   string
}

type service struct {
	txnService transactions.Service
}

func NewService(txnService transactions.Service) (Service, error) {
	if txnService == nil {
		return nil, errors.New("transaction service required")
	}
	return &service{txnService: txnService}, nil
}

// minorUnitExponents covers the zero-decimal currencies we accept; everything
// else uses two decimal places.
var minorUnitExponents = map[enums.Currency]int32{
	enums.CurrencyJPY: 0,
}

func (s *service) Simulate(ctx context.Context, input SimulateInput) (*models.Transaction, error) {
	currency, err := enums.ParseCurrency(input.Currency)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unrecognized currency")
	}

	cents, err := toMinorUnits(input.Amount, currency)
	if err != nil {
		return nil, err
	}

	txn, err := s.txnService.Create(ctx, transactions.CreateTransactionInput{
		MerchantID:  input.MerchantID,
		AmountCents: cents,
		Currency:    currency.String(),
	})
	if err != nil {
		return nil, err
	}

	return s.txnService.Confirm(ctx, transactions.ConfirmInput{
		TransactionID: txn.ID,
		Status:        enums.TransactionStatusAuthorised.String(),
		PSPReference:  "psp_test_" + uuid.NewString(),
	})
}

func toMinorUnits(amount string, currency enums.Currency) (int64, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid amount")
	}
	if parsed.IsNegative() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}

	exponent, ok := minorUnitExponents[currency]
	if !ok {
		exponent = 2
	}

	scaled := parsed.Shift(exponent)
	if !scaled.IsInteger() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("amount has more precision than %s allows", currency))
	}
	return scaled.IntPart(), nil
}
