package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fatflowers/fuelpos/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(All()...))
	return db
}

func TestTableNames(t *testing.T) {
	require.Equal(t, "employees", Employee{}.TableName())
	require.Equal(t, "fuel_types", FuelType{}.TableName())
	require.Equal(t, "gas_transactions", Transaction{}.TableName())
	require.Equal(t, "audit_logs", AuditLog{}.TableName())
}

func TestAuditLog_AppendOnly(t *testing.T) {
	db := newTestDB(t)
	entry := &AuditLog{
		ID:      "0192f0c1-0000-7000-8000-000000000001",
		Action:  types.AuditActionLogin,
		Details: datatypes.JSONMap{"success": false},
	}
	require.NoError(t, db.Create(entry).Error)

	err := db.Model(entry).Update("action", types.AuditActionLogout).Error
	require.ErrorIs(t, err, ErrAuditLogImmutable)

	err = db.Delete(entry).Error
	require.ErrorIs(t, err, ErrAuditLogImmutable)

	var count int64
	require.NoError(t, db.Model(&AuditLog{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestTransaction_DecimalAndExtraRoundTrip(t *testing.T) {
	db := newTestDB(t)
	tx := &Transaction{
		ID:            "0192f0c1-0000-7000-8000-000000000002",
		EmployeeID:    "emp-1",
		FuelTypeID:    "fuel-1",
		FuelAmount:    decimal.RequireFromString("10.5"),
		PricePerLiter: decimal.RequireFromString("32.49"),
		TotalAmount:   decimal.RequireFromString("341.15"),
		PaymentMethod: types.PaymentMethodCash,
		Status:        types.TransactionStatusCompleted,
		ReceiptNumber: "GS2410151200001234",
		Extra:         datatypes.NewJSONType(&TransactionExtra{FuelTypeName: "Gasohol 95"}),
	}
	require.NoError(t, db.Create(tx).Error)

	var got Transaction
	require.NoError(t, db.First(&got, "id = ?", tx.ID).Error)
	require.True(t, got.TotalAmount.Equal(tx.TotalAmount))
	require.True(t, got.FuelAmount.Equal(tx.FuelAmount))
	require.Equal(t, "Gasohol 95", got.GetFuelTypeName())
	require.Nil(t, got.SessionID)
}
