package merchants

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tapsnap/tapsnap-backend/pkg/db"
	"github.com/tapsnap/tapsnap-backend/pkg/db/models"
	pkgerrors "github.com/tapsnap/tapsnap-backend/pkg/errors"
	"github.com/tapsnap/tapsnap-backend/pkg/psp"
)

// Service defines merchant signup and lookup operations.
type Service interface {
	Create(ctx context.Context, input CreateMerchantInput) (*models.Merchant, error)
	Get(ctx context.Context, id int64) (*models.Merchant, error)
	StartOnboarding(ctx context.Context, merchantID int64) (*models.Merchant, error)
}

// CreateMerchantInput captures the signup fields.
type CreateMerchantInput struct {
	Name  string
	Email string
}

type platformAccountClient interface {
	CreatePlatformAccount(ctx context.Context, merchantID int64, email string) (*psp.PlatformAccount, error)
}

type service struct {
	repo      Repository
	pspClient platformAccountClient
}

// NewService wires a merchant service with the provided repository and PSP
// onboarding client.
func NewService(repo Repository, pspClient platformAccountClient) (Service, error) {
	if repo == nil {
		return nil, errors.New("merchant repository required")
	}
	if pspClient == nil {
		return nil, errors.New("psp client required")
	}
	return &service{repo: repo, pspClient: pspClient}, nil
}

func (s *service) Create(ctx context.Context, input CreateMerchantInput) (*models.Merchant, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant name is required")
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant email is required")
	}

	merchant := &models.Merchant{Name: name, Email: email}
	if err := s.repo.Create(ctx, merchant); err != nil {
		if db.IsUniqueViolation(err, "merchants") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "merchant email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create merchant")
	}
	return merchant, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Merchant, error) {
	merchant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}
	return merchant, nil
}

// StartOnboarding asks the PSP for a platform account and stores the linkage
// on the merchant. Re-running is harmless: an already linked merchant is
// returned as-is.
func (s *service) StartOnboarding(ctx context.Context, merchantID int64) (*models.Merchant, error) {
	merchant, err := s.Get(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if merchant.PlatformAccount != nil && *merchant.PlatformAccount != "" {
		return merchant, nil
	}

	account, err := s.pspClient.CreatePlatformAccount(ctx, merchant.ID, merchant.Email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create platform account")
	}

	merchant.PlatformAccount = &account.AccountCode
	if err := s.repo.Update(ctx, merchant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store platform account")
	}
	return merchant, nil
}
