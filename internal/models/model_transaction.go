package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/fatflowers/fuelpos/pkg/types"
)

// TransactionExtra snapshots context that may change after the sale.
type TransactionExtra struct {
	FuelTypeName string `json:"fuel_type_name,omitempty"`
	// PayloadReference is the reference embedded in the QR payload.
	PayloadReference string `json:"payload_reference,omitempty"`
}

// Transaction is a completed fuel sale.
type Transaction struct {
	ID         string `gorm:"column:id;primary_key;type:uuid;index:idx_employee_id_id,priority:2,sort:desc" json:"id"`
	EmployeeID string `gorm:"column:employee_id;type:varchar(64);not null;index:idx_employee_id_id,priority:1" json:"employee_id"`
	FuelTypeID string `gorm:"column:fuel_type_id;type:varchar(64);not null" json:"fuel_type_id"`
	// FuelAmount is in liters.
	FuelAmount    decimal.Decimal         `gorm:"column:fuel_amount;type:decimal(10,3);not null" json:"fuel_amount"`
	PricePerLiter decimal.Decimal         `gorm:"column:price_per_liter;type:decimal(10,2);not null" json:"price_per_liter"`
	TotalAmount   decimal.Decimal         `gorm:"column:total_amount;type:decimal(12,2);not null" json:"total_amount"`
	PaymentMethod types.PaymentMethod     `gorm:"column:payment_method;type:varchar(32);not null" json:"payment_method"`
	Status        types.TransactionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	ReceiptNumber string                  `gorm:"column:receipt_number;type:varchar(32);not null;uniqueIndex:unique_receipt_number" json:"receipt_number"`
	// SessionID links a QR sale to its payment session; at most one sale per session.
	SessionID             *string `gorm:"column:session_id;type:varchar(64);uniqueIndex:unique_session_id" json:"session_id,omitempty"`
	ExternalTransactionID *string `gorm:"column:external_transaction_id;type:varchar(128)" json:"external_transaction_id,omitempty"`
	Notes                 *string `gorm:"column:notes;type:text" json:"notes,omitempty"`

	Extra     datatypes.JSONType[*TransactionExtra] `gorm:"column:extra;type:jsonb" json:"extra"`
	CreatedAt time.Time                             `json:"created_at"`
	UpdatedAt time.Time                             `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "gas_transactions"
}

func (t *Transaction) GetFuelTypeName() string {
	if t == nil || t.Extra.Data() == nil {
		return ""
	}
	return t.Extra.Data().FuelTypeName
}
