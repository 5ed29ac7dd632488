package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fatflowers/fuelpos/pkg/types"
)

type FuelType struct {
	ID            string          `gorm:"column:id;primary_key;type:uuid" json:"id"`
	Name          string          `gorm:"column:name;type:varchar(64);not null;uniqueIndex:unique_fuel_type_name" json:"name"`
	Type          types.FuelKind  `gorm:"column:type;type:varchar(32);not null" json:"type"`
	PricePerLiter decimal.Decimal `gorm:"column:price_per_liter;type:decimal(10,2);not null" json:"price_per_liter"`
	IsAvailable   bool            `gorm:"column:is_available;not null;default:true" json:"is_available"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (FuelType) TableName() string { return "fuel_types" }
