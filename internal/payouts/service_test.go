package payouts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tapsnap/tapsnap-backend/internal/merchants"
	"github.com/tapsnap/tapsnap-backend/pkg/db/models"
	"github.com/tapsnap/tapsnap-backend/pkg/enums"
	pkgerrors "github.com/tapsnap/tapsnap-backend/pkg/errors"
)

func setupService(t *testing.T) (Service, *models.Merchant) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Merchant{}, &models.Payout{}))
	t.Cleanup(func() {
		sqlDB, dbErr := conn.DB()
		require.NoError(t, dbErr)
		require.NoError(t, sqlDB.Close())
	})

	merchant := &models.Merchant{Name: "Tap Cafe", Email: "owner@tapcafe.io"}
	require.NoError(t, conn.Create(merchant).Error)

	svc, err := NewService(NewRepository(conn), merchants.NewRepository(conn))
	require.NoError(t, err)
	return svc, merchant
}

func TestService_ScheduleAndList(t *testing.T) {
	svc, merchant := setupService(t)
	ctx := context.Background()

	when := time.Now().Add(48 * time.Hour).UTC()
	payout, err := svc.Schedule(ctx, ScheduleInput{
		MerchantID:   merchant.ID,
		AmountCents:  125000,
		Currency:     "usd",
		ScheduledFor: &when,
	})
	require.NoError(t, err)
	require.Equal(t, enums.PayoutStatusScheduled, payout.Status)
	require.Equal(t, enums.CurrencyUSD, payout.Currency)

	listed, err := svc.List(ctx, merchant.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, payout.ID, listed[0].ID)

	other, err := svc.List(ctx, merchant.ID+1)
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestService_ScheduleValidation(t *testing.T) {
	svc, merchant := setupService(t)
	ctx := context.Background()

	_, err := svc.Schedule(ctx, ScheduleInput{MerchantID: merchant.ID, AmountCents: 0, Currency: "USD"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.Schedule(ctx, ScheduleInput{MerchantID: merchant.ID, AmountCents: 100, Currency: "???"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.Schedule(ctx, ScheduleInput{MerchantID: merchant.ID + 99, AmountCents: 100, Currency: "USD"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
