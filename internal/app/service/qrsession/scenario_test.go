package qrsession

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/fuelpos/internal/app/service/auditlog"
	"github.com/fatflowers/fuelpos/internal/app/service/catalog"
	"github.com/fatflowers/fuelpos/internal/app/service/transaction"
	"github.com/fatflowers/fuelpos/internal/models"
	"github.com/fatflowers/fuelpos/internal/platform/bank"
	"github.com/fatflowers/fuelpos/internal/platform/qrimage"
	"github.com/fatflowers/fuelpos/internal/testutil"
	"github.com/fatflowers/fuelpos/pkg/config"
	"github.com/fatflowers/fuelpos/pkg/emvqr"
	"github.com/fatflowers/fuelpos/pkg/types"
)

// A 10 liter sale at 25.00 THB paid through PromptPay ends up as exactly one
// 250.00 transaction and one payment_processed audit entry.
func TestScenario_PromptPaySaleIsRecorded(t *testing.T) {
	db := testutil.NewDB(t)
	log := zap.NewNop().Sugar()
	ctx := context.Background()

	cat := catalog.New(db, log)
	require.NoError(t, cat.Seed(ctx, []config.FuelTypeSeed{
		{Name: "Gasohol 91", Type: types.FuelKindGasoline, PricePerLiter: decimal.RequireFromString("25.00"), IsAvailable: true},
	}))
	fuels, err := cat.ListAvailable(ctx)
	require.NoError(t, err)
	fuel := fuels[0]

	recorder := transaction.NewRecorder(transaction.NewGormStore(db), cat, auditlog.New(db, log), nil, log)
	checker := bank.NewSimulatedChecker(0)
	build, ref := NewPayloadBuilder(config.MerchantConfig{Name: "Station 7", PromptPayID: merchantID}, config.QRModePromptPay)
	m := NewManager(testOptions(), build, ref, qrimage.New(), checker, recorder, nil, log)
	defer func() { require.NoError(t, m.Close(ctx)) }()

	fuelAmount := decimal.NewFromInt(10)
	s, err := m.Start(ctx, StartRequest{
		Amount: transaction.Total(fuelAmount, fuel.PricePerLiter),
		Sale: &Sale{
			EmployeeID:    "emp-1",
			FuelTypeID:    fuel.ID,
			FuelAmount:    fuelAmount,
			PaymentMethod: types.PaymentMethodPromptPay,
		},
	})
	require.NoError(t, err)
	require.Equal(t, StateWaiting, s.State)

	summary, err := emvqr.Decode(s.Payload)
	require.NoError(t, err)
	require.Equal(t, merchantID, summary.Target)
	require.Equal(t, "250.00", summary.Amount.StringFixed(2))
	require.Equal(t, s.TransactionRef, summary.Reference)

	events, stop, err := m.Subscribe(s.ID)
	require.NoError(t, err)
	defer stop()
	checker.Approve(s.TransactionRef, "TH123")

	all := drain(t, events)
	last := all[len(all)-1]
	require.Equal(t, StateSucceeded, last.State)
	require.NoError(t, last.Err)
	require.False(t, last.NeedsReconciliation)
	require.Equal(t, "250.00", last.Transaction.TotalAmount.StringFixed(2))

	var txs []models.Transaction
	require.NoError(t, db.Find(&txs).Error)
	require.Len(t, txs, 1)
	require.Equal(t, s.ID, *txs[0].SessionID)
	require.Equal(t, "TH123", *txs[0].ExternalTransactionID)
	require.Equal(t, types.PaymentMethodPromptPay, txs[0].PaymentMethod)

	var audits int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", types.AuditActionPaymentProcessed).Count(&audits).Error)
	require.EqualValues(t, 1, audits)
}

func TestScenario_CancelRecordsNothing(t *testing.T) {
	db := testutil.NewDB(t)
	log := zap.NewNop().Sugar()
	ctx := context.Background()

	cat := catalog.New(db, log)
	recorder := transaction.NewRecorder(transaction.NewGormStore(db), cat, auditlog.New(db, log), nil, log)
	checker := bank.NewSimulatedChecker(0)
	build, ref := NewPayloadBuilder(config.MerchantConfig{PromptPayID: merchantID}, config.QRModePromptPay)
	m := NewManager(testOptions(), build, ref, qrimage.New(), checker, recorder, nil, log)
	defer func() { require.NoError(t, m.Close(ctx)) }()

	s, err := m.Start(ctx, StartRequest{Amount: amount("100.00"), Sale: sale()})
	require.NoError(t, err)
	_, err = m.Cancel(s.ID)
	require.NoError(t, err)
	checker.Approve(s.TransactionRef, "TH1")

	var n int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&n).Error)
	require.Zero(t, n)
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&n).Error)
	require.Zero(t, n)
}

func TestPayloadBuilder_QR30(t *testing.T) {
	build, ref := NewPayloadBuilder(config.MerchantConfig{BillerID: "010555855555501", TerminalID: "POS02"}, config.QRModeQR30)
	require.Equal(t, "010555855555501", ref)

	payload, err := build("TXN1", amount("42.5"))
	require.NoError(t, err)
	summary, err := emvqr.Decode(payload)
	require.NoError(t, err)
	require.Equal(t, emvqr.SchemeBillPayment, summary.Scheme)
	require.Equal(t, "TXN1", summary.Ref1)
	require.Equal(t, "POS02", summary.TerminalLabel)
}
