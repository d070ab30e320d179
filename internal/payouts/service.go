package payouts

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tapsnap/tapsnap-backend/internal/merchants"
	"github.com/tapsnap/tapsnap-backend/pkg/db/models"
	"github.com/tapsnap/tapsnap-backend/pkg/enums"
	pkgerrors "github.com/tapsnap/tapsnap-backend/pkg/errors"
)

// Service schedules and lists merchant payouts.
type Service interface {
	Schedule(ctx context.Context, input ScheduleInput) (*models.Payout, error)
	List(ctx context.Context, merchantID int64) ([]models.Payout, error)
}

// ScheduleInput captures a payout to be disbursed later.
type ScheduleInput struct {
	MerchantID   int64
	AmountCents  int64
	Currency     string
	ScheduledFor *time.Time
}

type service struct {
	repo         Repository
	merchantRepo merchants.Repository
}

func NewService(repo Repository, merchantRepo merchants.Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("payout repository required")
	}
	if merchantRepo == nil {
		return nil, errors.New("merchant repository required")
	}
	return &service{repo: repo, merchantRepo: merchantRepo}, nil
}

func (s *service) Schedule(ctx context.Context, input ScheduleInput) (*models.Payout, error) {
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout amount must be positive")
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

	payout := &models.Payout{
		MerchantID:   input.MerchantID,
		AmountCents:  input.AmountCents,
		Currency:     currency,
		Status:       enums.PayoutStatusScheduled,
		ScheduledFor: input.ScheduledFor,
	}
	if err := s.repo.Create(ctx, payout); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout")
	}
	return payout, nil
}

func (s *service) List(ctx context.Context, merchantID int64) ([]models.Payout, error) {
	payouts, err := s.repo.List(ctx, merchantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}
	return payouts, nil
}
