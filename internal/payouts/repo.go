package payouts

import (
	"context"

	"gorm.io/gorm"

	"github.com/tapsnap/tapsnap-backend/pkg/db/models"
)

// Repository manages persistence for payouts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payout *models.Payout) error
	List(ctx context.Context, merchantID int64) ([]models.Payout, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payout repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) List(ctx context.Context, merchantID int64) ([]models.Payout, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if merchantID > 0 {
		query = query.Where("merchant_id = ?", merchantID)
	}

	var payouts []models.Payout
	if err := query.Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}
