package models

import (
	"time"

	"github.com/fatflowers/fuelpos/pkg/types"
)

type Employee struct {
	ID       string             `gorm:"column:id;primary_key;type:uuid" json:"id"`
	FullName string             `gorm:"column:full_name;type:varchar(128);not null" json:"full_name"`
	PINHash  string             `gorm:"column:pin_hash;type:varchar(255);not null" json:"-"`
	Role     types.EmployeeRole `gorm:"column:role;type:varchar(32);not null" json:"role"`
	IsActive bool               `gorm:"column:is_active;not null;default:true" json:"is_active"`
	// LastLoginAt is nil until the first successful login.
	LastLoginAt *time.Time `gorm:"column:last_login_at;default:null" json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Employee) TableName() string { return "employees" }
