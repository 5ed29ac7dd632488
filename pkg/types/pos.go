package types

type PaymentMethod string

const (
	PaymentMethodCash      PaymentMethod = "cash"
	PaymentMethodCard      PaymentMethod = "card"
	PaymentMethodQRCode    PaymentMethod = "qr_code"
	PaymentMethodPromptPay PaymentMethod = "promptpay"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodQRCode, PaymentMethodPromptPay:
		return true
	}
	return false
}

// IsQR reports whether the method is settled through a scanned QR session.
func (m PaymentMethod) IsQR() bool {
	return m == PaymentMethodQRCode || m == PaymentMethodPromptPay
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
	TransactionStatusFailed    TransactionStatus = "failed"
)

type AuditAction string

const (
	AuditActionLogin                AuditAction = "login"
	AuditActionLogout               AuditAction = "logout"
	AuditActionTransactionCreated   AuditAction = "transaction_created"
	AuditActionTransactionCancelled AuditAction = "transaction_cancelled"
	AuditActionPaymentProcessed     AuditAction = "payment_processed"
	AuditActionAlertCreated         AuditAction = "alert_created"
)

type EmployeeRole string

const (
	EmployeeRoleCashier EmployeeRole = "cashier"
	EmployeeRoleAdmin   EmployeeRole = "admin"
	EmployeeRoleManager EmployeeRole = "manager"
)

type FuelKind string

const (
	FuelKindGasoline FuelKind = "gasoline"
	FuelKindDiesel   FuelKind = "diesel"
	FuelKindPremium  FuelKind = "premium"
	FuelKindSuper    FuelKind = "super"
	FuelKindEthanol  FuelKind = "ethanol"
)
