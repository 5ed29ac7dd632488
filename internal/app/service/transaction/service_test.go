package transaction

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/fuelpos/pkg/types"
)

func TestService_Queries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewService(f.db, zap.NewNop().Sugar())

	var ids []string
	for i, emp := range []string{"emp-1", "emp-1", "emp-2"} {
		method := types.PaymentMethodCash
		if i == 1 {
			method = types.PaymentMethodPromptPay
		}
		tx, err := f.recorder.Record(ctx, &RecordRequest{
			EmployeeID: emp, FuelTypeID: f.fuel.ID, FuelAmount: decimal.NewFromInt(int64(i + 1)), PaymentMethod: method,
		})
		require.NoError(t, err)
		ids = append(ids, tx.ID)
	}

	got, err := svc.GetTransaction(ctx, ids[0])
	require.NoError(t, err)
	require.Equal(t, "25.00", got.TotalAmount.StringFixed(2))

	_, err = svc.GetTransaction(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	list, err := svc.ListEmployeeTransactions(ctx, "emp-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	res, err := svc.ScanTransactions(ctx, &types.ScanRequest{
		Filters: []*types.CommonFilter{{Field: "payment_method", Operator: types.CommonFilterOperatorIn, Values: []any{"promptpay", "qr_code"}}},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Total)
	require.Equal(t, ids[1], res.Items[0].ID)

	res, err = svc.ScanTransactions(ctx, &types.ScanRequest{Size: 2, SortBy: "total_amount", SortOrder: "asc"})
	require.NoError(t, err)
	require.EqualValues(t, 3, res.Total)
	require.Len(t, res.Items, 2)
	require.Equal(t, ids[0], res.Items[0].ID)

	_, err = svc.ScanTransactions(ctx, &types.ScanRequest{SortBy: "notes"})
	require.Error(t, err)
}
