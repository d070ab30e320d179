package merchants

import (
	"context"

	"gorm.io/gorm"

	"github.com/tapsnap/tapsnap-backend/pkg/db/models"
)

// Repository manages persistence for merchants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, merchant *models.Merchant) error
	FindByID(ctx context.Context, id int64) (*models.Merchant, error)
	FindByEmail(ctx context.Context, email string) (*models.Merchant, error)
	Update(ctx context.Context, merchant *models.Merchant) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a merchant repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, merchant *models.Merchant) error {
	return r.db.WithContext(ctx).Create(merchant).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (r *repository) Update(ctx context.Context, merchant *models.Merchant) error {
	return r.db.WithContext(ctx).Save(merchant).Error
}
