package transaction

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/fuelpos/internal/app/service/auditlog"
	"github.com/fatflowers/fuelpos/internal/app/service/catalog"
	"github.com/fatflowers/fuelpos/internal/models"
	"github.com/fatflowers/fuelpos/internal/testutil"
	"github.com/fatflowers/fuelpos/pkg/config"
	"github.com/fatflowers/fuelpos/pkg/types"
)

type fixture struct {
	db       *gorm.DB
	catalog  *catalog.Service
	audit    *auditlog.Service
	recorder *Recorder
	fuel     *models.FuelType
	diesel   *models.FuelType
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	log := zap.NewNop().Sugar()
	cat := catalog.New(db, log)
	require.NoError(t, cat.Seed(context.Background(), []config.FuelTypeSeed{
		{Name: "Gasohol 91", Type: types.FuelKindGasoline, PricePerLiter: decimal.RequireFromString("25.00"), IsAvailable: true},
		{Name: "Diesel B7", Type: types.FuelKindDiesel, PricePerLiter: decimal.RequireFromString("32.49"), IsAvailable: true},
		{Name: "E85", Type: types.FuelKindEthanol, PricePerLiter: decimal.RequireFromString("28.00"), IsAvailable: false},
	}))
	all, err := cat.ListAll(context.Background())
	require.NoError(t, err)

	f := &fixture{db: db, catalog: cat, audit: auditlog.New(db, log)}
	for _, ft := range all {
		switch ft.Name {
		case "Gasohol 91":
			f.fuel = ft
		case "Diesel B7":
			f.diesel = ft
		}
	}
	f.recorder = NewRecorder(NewGormStore(db), cat, f.audit, nil, log)
	return f
}

func (f *fixture) countAudit(t *testing.T, action types.AuditAction) int64 {
	var n int64
	require.NoError(t, f.db.Model(&models.AuditLog{}).Where("action = ?", action).Count(&n).Error)
	return n
}

func TestRecorder_ComputesTotalFromCatalog(t *testing.T) {
	f := newFixture(t)
	clientTotal := decimal.RequireFromString("1.00")

	tx, err := f.recorder.Record(context.Background(), &RecordRequest{
		EmployeeID:            "emp-1",
		FuelTypeID:            f.fuel.ID,
		FuelAmount:            decimal.RequireFromString("10"),
		PaymentMethod:         types.PaymentMethodPromptPay,
		SessionID:             "sess-1",
		ExternalTransactionID: "TH123",
		ClientTotal:           &clientTotal,
	})
	require.NoError(t, err)
	require.Equal(t, "250.00", tx.TotalAmount.StringFixed(2))
	require.Equal(t, types.TransactionStatusCompleted, tx.Status)
	require.Regexp(t, `^GS\d{12}[A-Z2-7]{4}$`, tx.ReceiptNumber)
	require.Equal(t, "Gasohol 91", tx.GetFuelTypeName())

	var stored models.Transaction
	require.NoError(t, f.db.First(&stored, "id = ?", tx.ID).Error)
	require.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("250")))
	require.Equal(t, "TH123", *stored.ExternalTransactionID)

	var entry models.AuditLog
	require.NoError(t, f.db.First(&entry, "action = ?", types.AuditActionPaymentProcessed).Error)
	require.Equal(t, tx.ID, entry.Details["transaction_id"])
	require.Equal(t, "250.00", entry.Details["amount"])
	require.Equal(t, "promptpay", entry.Details["payment_method"])
	require.Equal(t, tx.ReceiptNumber, entry.Details["receipt_number"])
	require.Equal(t, "emp-1", *entry.EmployeeID)
}

func TestRecorder_TotalIsRoundedProduct(t *testing.T) {
	f := newFixture(t)
	amounts := []string{"0.001", "1", "10.5", "33.333", "47.25"}
	for _, a := range amounts {
		amount := decimal.RequireFromString(a)
		tx, err := f.recorder.Record(context.Background(), &RecordRequest{
			EmployeeID:    "emp-1",
			FuelTypeID:    f.diesel.ID,
			FuelAmount:    amount,
			PaymentMethod: types.PaymentMethodCash,
		})
		require.NoError(t, err, a)
		require.True(t, tx.TotalAmount.Equal(amount.Mul(f.diesel.PricePerLiter).Round(2)), a)
	}
	require.Equal(t, "341.15", Total(decimal.RequireFromString("10.5"), decimal.RequireFromString("32.49")).StringFixed(2))
}

func TestRecorder_RejectsBadRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.recorder.Record(ctx, nil)
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.recorder.Record(ctx, &RecordRequest{EmployeeID: "e", FuelTypeID: f.fuel.ID, FuelAmount: decimal.Zero, PaymentMethod: types.PaymentMethodCash})
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.recorder.Record(ctx, &RecordRequest{EmployeeID: "e", FuelTypeID: f.fuel.ID, FuelAmount: decimal.NewFromInt(1), PaymentMethod: "cheque"})
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.recorder.Record(ctx, &RecordRequest{EmployeeID: "e", FuelTypeID: "missing", FuelAmount: decimal.NewFromInt(1), PaymentMethod: types.PaymentMethodCash})
	require.ErrorIs(t, err, ErrFuelTypeUnavailable)

	e85, err := f.catalog.ListAll(ctx)
	require.NoError(t, err)
	for _, ft := range e85 {
		if !ft.IsAvailable {
			_, err = f.recorder.Record(ctx, &RecordRequest{EmployeeID: "e", FuelTypeID: ft.ID, FuelAmount: decimal.NewFromInt(1), PaymentMethod: types.PaymentMethodCash})
			require.ErrorIs(t, err, ErrFuelTypeUnavailable)
		}
	}

	var n int64
	require.NoError(t, f.db.Model(&models.Transaction{}).Count(&n).Error)
	require.Zero(t, n)
}

func TestRecorder_SessionRecordedOnce(t *testing.T) {
	f := newFixture(t)
	req := &RecordRequest{
		EmployeeID:    "emp-1",
		FuelTypeID:    f.fuel.ID,
		FuelAmount:    decimal.NewFromInt(4),
		PaymentMethod: types.PaymentMethodQRCode,
		SessionID:     "sess-dup",
	}
	first, err := f.recorder.Record(context.Background(), req)
	require.NoError(t, err)

	second, err := f.recorder.Record(context.Background(), req)
	require.ErrorIs(t, err, ErrAlreadyRecorded)
	require.Equal(t, first.ID, second.ID)
	require.EqualValues(t, 1, f.countAudit(t, types.AuditActionPaymentProcessed))
}

type failingStore struct{ err error }

func (s failingStore) CreateTransaction(context.Context, *models.Transaction) error { return s.err }
func (s failingStore) GetBySessionID(context.Context, string) (*models.Transaction, error) {
	return nil, ErrNotFound
}

func TestRecorder_TransactionFailureBlocks(t *testing.T) {
	f := newFixture(t)
	r := NewRecorder(failingStore{err: errors.New("connection reset")}, f.catalog, f.audit, nil, zap.NewNop().Sugar())

	_, err := r.Record(context.Background(), &RecordRequest{
		EmployeeID: "emp-1", FuelTypeID: f.fuel.ID, FuelAmount: decimal.NewFromInt(1), PaymentMethod: types.PaymentMethodCash,
	})
	require.ErrorIs(t, err, ErrStorage)
	require.Zero(t, f.countAudit(t, types.AuditActionPaymentProcessed))
}

func TestRecorder_ReceiptCollisionsExhausted(t *testing.T) {
	f := newFixture(t)
	r := NewRecorder(failingStore{err: gorm.ErrDuplicatedKey}, f.catalog, f.audit, nil, zap.NewNop().Sugar())

	_, err := r.Record(context.Background(), &RecordRequest{
		EmployeeID: "emp-1", FuelTypeID: f.fuel.ID, FuelAmount: decimal.NewFromInt(1), PaymentMethod: types.PaymentMethodCash,
	})
	require.ErrorIs(t, err, ErrStorage)
}

type failingAudit struct{ calls int }

func (a *failingAudit) Create(context.Context, *models.AuditLog) error {
	a.calls++
	return errors.New("audit table locked")
}

func TestRecorder_AuditFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	audit := &failingAudit{}
	r := NewRecorder(NewGormStore(f.db), f.catalog, audit, nil, zap.NewNop().Sugar())

	tx, err := r.Record(context.Background(), &RecordRequest{
		EmployeeID: "emp-1", FuelTypeID: f.fuel.ID, FuelAmount: decimal.NewFromInt(2), PaymentMethod: types.PaymentMethodCard,
	})
	require.NoError(t, err)
	require.Equal(t, 1, audit.calls)

	var stored models.Transaction
	require.NoError(t, f.db.First(&stored, "id = ?", tx.ID).Error)
	require.Equal(t, "50.00", stored.TotalAmount.StringFixed(2))
}
