package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fatflowers/fuelpos/internal/app/service/auditlog"
	"github.com/fatflowers/fuelpos/internal/app/service/catalog"
	"github.com/fatflowers/fuelpos/internal/models"
	"github.com/fatflowers/fuelpos/pkg/logctx"
	"github.com/fatflowers/fuelpos/pkg/metrics"
	"github.com/fatflowers/fuelpos/pkg/tool"
	"github.com/fatflowers/fuelpos/pkg/types"
)

// receiptAttempts bounds regeneration after a receipt number collision.
const receiptAttempts = 3

// RecordRequest describes a paid sale. The total is never taken from it.
type RecordRequest struct {
	EmployeeID    string
	FuelTypeID    string
	FuelAmount    decimal.Decimal
	PaymentMethod types.PaymentMethod

	// SessionID is set for QR sales; a session is recorded at most once.
	SessionID             string
	TransactionRef        string
	ExternalTransactionID string
	Notes                 string

	// ClientTotal is what the terminal displayed. Only used to log mismatches.
	ClientTotal *decimal.Decimal
	Meta        auditlog.RequestMeta
}

type Recorder struct {
	store   Store
	catalog catalog.Lookup
	audit   auditlog.Writer
	metrics *metrics.Business
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewRecorder(store Store, cat catalog.Lookup, audit auditlog.Writer, m *metrics.Business, log *zap.SugaredLogger) *Recorder {
	return &Recorder{store: store, catalog: cat, audit: audit, metrics: m, log: log, now: time.Now}
}

// Record prices the sale from the catalog, writes the transaction and then
// the payment_processed audit entry. A failed transaction write returns an
// ErrStorage error; a failed audit write is logged and counted only.
func (r *Recorder) Record(ctx context.Context, req *RecordRequest) (*models.Transaction, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	log := logctx.FromCtx(ctx, r.log)

	ft, err := r.catalog.GetFuelType(ctx, req.FuelTypeID)
	if err != nil {
		if errors.Is(err, catalog.ErrFuelTypeNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFuelTypeUnavailable, req.FuelTypeID)
		}
		return nil, fmt.Errorf("%w: catalog lookup: %v", ErrStorage, err)
	}
	if !ft.IsAvailable {
		return nil, fmt.Errorf("%w: %s", ErrFuelTypeUnavailable, ft.Name)
	}

	total := Total(req.FuelAmount, ft.PricePerLiter)
	if req.ClientTotal != nil && !req.ClientTotal.Equal(total) {
		log.Warnw("client_total_mismatch", "client_total", req.ClientTotal.String(), "total", total.String(), "fuel_type_id", ft.ID)
	}

	tx := &models.Transaction{
		ID:            tool.GenerateUUIDV7(),
		EmployeeID:    req.EmployeeID,
		FuelTypeID:    ft.ID,
		FuelAmount:    req.FuelAmount,
		PricePerLiter: ft.PricePerLiter,
		TotalAmount:   total,
		PaymentMethod: req.PaymentMethod,
		Status:        types.TransactionStatusCompleted,
		Extra: datatypes.NewJSONType(&models.TransactionExtra{
			FuelTypeName:     ft.Name,
			PayloadReference: req.TransactionRef,
		}),
	}
	if req.SessionID != "" {
		tx.SessionID = &req.SessionID
	}
	if req.ExternalTransactionID != "" {
		tx.ExternalTransactionID = &req.ExternalTransactionID
	}
	if req.Notes != "" {
		tx.Notes = &req.Notes
	}

	if existing, err := r.insert(ctx, tx); err != nil {
		if existing != nil {
			log.Warnw("transaction_already_recorded", "session_id", req.SessionID, "transaction_id", existing.ID)
			return existing, err
		}
		r.metrics.RecorderFailure("transaction")
		log.Errorw("transaction_write_failed", "session_id", req.SessionID, "err", err)
		return nil, err
	}

	r.writeAudit(ctx, tx, req)

	log.Infow("transaction_recorded",
		"transaction_id", tx.ID,
		"receipt_number", tx.ReceiptNumber,
		"payment_method", tx.PaymentMethod,
		"total_amount", tx.TotalAmount.StringFixed(2),
		"session_id", req.SessionID,
	)
	return tx, nil
}

// insert writes tx, drawing a fresh receipt number on each attempt.
func (r *Recorder) insert(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	var lastErr error
	for i := 0; i < receiptAttempts; i++ {
		tx.ReceiptNumber = tool.GenerateReceiptNumber(r.now())
		err := r.store.CreateTransaction(ctx, tx)
		if err == nil {
			return nil, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if tx.SessionID != nil {
			if existing, getErr := r.store.GetBySessionID(ctx, *tx.SessionID); getErr == nil {
				return existing, ErrAlreadyRecorded
			}
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: receipt number collisions: %v", ErrStorage, lastErr)
}

func (r *Recorder) writeAudit(ctx context.Context, tx *models.Transaction, req *RecordRequest) {
	details := map[string]any{
		"transaction_id": tx.ID,
		"amount":         tx.TotalAmount.StringFixed(2),
		"payment_method": string(tx.PaymentMethod),
		"receipt_number": tx.ReceiptNumber,
	}
	if req.SessionID != "" {
		details["session_id"] = req.SessionID
	}
	if req.ExternalTransactionID != "" {
		details["external_transaction_id"] = req.ExternalTransactionID
	}
	entry := &models.AuditLog{
		EmployeeID: &tx.EmployeeID,
		Action:     types.AuditActionPaymentProcessed,
		Details:    details,
	}
	if req.Meta.IPAddress != "" {
		entry.IPAddress = &req.Meta.IPAddress
	}
	if req.Meta.UserAgent != "" {
		entry.UserAgent = &req.Meta.UserAgent
	}
	if err := r.audit.Create(ctx, entry); err != nil {
		r.metrics.RecorderFailure("audit")
		logctx.FromCtx(ctx, r.log).Errorw("audit_write_failed_after_transaction",
			"transaction_id", tx.ID,
			"receipt_number", tx.ReceiptNumber,
			"err", err,
		)
	}
}

// Total is the authoritative price of a sale, rounded to satang.
func Total(fuelAmount, pricePerLiter decimal.Decimal) decimal.Decimal {
	return fuelAmount.Mul(pricePerLiter).Round(2)
}

func validate(req *RecordRequest) error {
	switch {
	case req == nil:
		return fmt.Errorf("%w: nil request", ErrInvalidRequest)
	case req.EmployeeID == "":
		return fmt.Errorf("%w: employee id is required", ErrInvalidRequest)
	case req.FuelTypeID == "":
		return fmt.Errorf("%w: fuel type id is required", ErrInvalidRequest)
	case !req.FuelAmount.IsPositive():
		return fmt.Errorf("%w: fuel amount must be positive", ErrInvalidRequest)
	case !req.PaymentMethod.Valid():
		return fmt.Errorf("%w: unsupported payment method %q", ErrInvalidRequest, req.PaymentMethod)
	}
	return nil
}
