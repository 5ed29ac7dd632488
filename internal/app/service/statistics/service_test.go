package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fatflowers/fuelpos/internal/models"
	"github.com/fatflowers/fuelpos/internal/testutil"
	"github.com/fatflowers/fuelpos/pkg/tool"
	"github.com/fatflowers/fuelpos/pkg/types"
)

func day(d, h int) time.Time {
	return time.Date(2026, time.October, d, h, 0, 0, 0, time.UTC)
}

func seedSale(t *testing.T, db *gorm.DB, at time.Time, method types.PaymentMethod, fuelType, liters, total string, status types.TransactionStatus) {
	t.Helper()
	tx := &models.Transaction{
		ID:            tool.GenerateUUIDV7(),
		EmployeeID:    "emp-1",
		FuelTypeID:    fuelType,
		FuelAmount:    decimal.RequireFromString(liters),
		PricePerLiter: decimal.RequireFromString("25.00"),
		TotalAmount:   decimal.RequireFromString(total),
		PaymentMethod: method,
		Status:        status,
		ReceiptNumber: tool.GenerateReceiptNumber(at),
		CreatedAt:     at,
	}
	require.NoError(t, db.Create(tx).Error)
}

func newSeeded(t *testing.T) *Service {
	db := testutil.NewDB(t)
	seedSale(t, db, day(13, 9), types.PaymentMethodCash, "ft-91", "10", "250.00", types.TransactionStatusCompleted)
	seedSale(t, db, day(13, 10), types.PaymentMethodPromptPay, "ft-91", "4", "100.00", types.TransactionStatusCompleted)
	seedSale(t, db, day(14, 8), types.PaymentMethodCash, "ft-d", "2", "50.50", types.TransactionStatusCompleted)
	seedSale(t, db, day(14, 9), types.PaymentMethodCash, "ft-d", "2", "50.00", types.TransactionStatusCompleted)
	seedSale(t, db, day(14, 10), types.PaymentMethodCash, "ft-d", "8", "200.00", types.TransactionStatusCancelled)
	seedSale(t, db, day(16, 10), types.PaymentMethodCash, "ft-d", "1", "25.00", types.TransactionStatusCompleted)
	return New(db)
}

func TestService_DailySales(t *testing.T) {
	svc := newSeeded(t)

	items, err := svc.DailySales(context.Background(), day(13, 0), day(15, 0))
	require.NoError(t, err)
	require.Len(t, items, 3)

	require.Equal(t, "2026-10-14", items[0].Date)
	require.Equal(t, "cash", items[0].Label)
	require.EqualValues(t, 2, items[0].Count)
	require.Equal(t, "100.50", items[0].Value.StringFixed(2))

	require.Equal(t, "2026-10-13", items[1].Date)
	require.Equal(t, "cash", items[1].Label)
	require.Equal(t, "250.00", items[1].Value.StringFixed(2))

	require.Equal(t, "2026-10-13", items[2].Date)
	require.Equal(t, "promptpay", items[2].Label)
	require.EqualValues(t, 1, items[2].Count)
}

func TestService_GetSalesStatistic(t *testing.T) {
	svc := newSeeded(t)

	res, err := svc.GetSalesStatistic(context.Background(), &SalesStatisticRequest{
		From: day(13, 0),
		To:   day(15, 0),
		Filters: []*types.CommonFilter{
			{Field: "payment_method", Operator: types.CommonFilterOperatorEq, Values: []any{"cash"}},
		},
		DataItems: []*SalesStatisticDataItem{
			{ID: StatisticTypeDailyTransactionCount},
			{ID: StatisticTypeDailyFuelVolume},
			{ID: StatisticTypeTotalSales},
		},
	})
	require.NoError(t, err)

	counts := res.DataItems[StatisticTypeDailyTransactionCount]
	require.Len(t, counts, 2)
	require.Equal(t, "2026-10-14", counts[0].Date)
	require.EqualValues(t, 2, counts[0].Count)
	require.EqualValues(t, 1, counts[1].Count)

	volume := res.DataItems[StatisticTypeDailyFuelVolume]
	require.Len(t, volume, 2)
	require.Equal(t, "ft-d", volume[0].Label)
	require.Equal(t, "4", volume[0].Value.String())

	total := res.DataItems[StatisticTypeTotalSales]
	require.Len(t, total, 1)
	require.EqualValues(t, 3, total[0].Count)
	require.Equal(t, "350.50", total[0].Value.StringFixed(2))
}

func TestService_GetSalesStatisticValidation(t *testing.T) {
	svc := New(testutil.NewDB(t))
	ctx := context.Background()

	_, err := svc.GetSalesStatistic(ctx, &SalesStatisticRequest{})
	require.Error(t, err)

	_, err = svc.GetSalesStatistic(ctx, &SalesStatisticRequest{
		Filters:   []*types.CommonFilter{{Field: "pin_hash", Operator: types.CommonFilterOperatorEq, Values: []any{"x"}}},
		DataItems: []*SalesStatisticDataItem{{ID: StatisticTypeTotalSales}},
	})
	require.Error(t, err)

	_, err = svc.GetSalesStatistic(ctx, &SalesStatisticRequest{
		From:      day(15, 0),
		To:        day(13, 0),
		DataItems: []*SalesStatisticDataItem{{ID: StatisticTypeTotalSales}},
	})
	require.Error(t, err)

	_, err = svc.GetSalesStatistic(ctx, &SalesStatisticRequest{DataItems: []*SalesStatisticDataItem{{ID: "churn"}}})
	require.Error(t, err)
}
