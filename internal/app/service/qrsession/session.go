// Package qrsession runs QR payment sessions: it issues a payload, polls the
// bank until the payment settles or the deadline passes, and records the sale
// exactly once when it succeeds.
package qrsession

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fatflowers/fuelpos/internal/app/service/auditlog"
	"github.com/fatflowers/fuelpos/internal/models"
	"github.com/fatflowers/fuelpos/pkg/types"
)

var (
	ErrSessionNotFound   = errors.New("qr session not found")
	ErrInvalidTransition = errors.New("invalid qr session transition")
	ErrInvalidRequest    = errors.New("invalid qr session request")
	ErrNoImage           = errors.New("qr session has no image")
	ErrClosed            = errors.New("qr session manager closed")
)

type State string

const (
	StateGenerating State = "generating"
	StateWaiting    State = "waiting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
	StateTimedOut   State = "timed_out"
	StateCancelled  State = "cancelled"
)

// Terminal states accept no further transition.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateCancelled
}

// Retryable states may be followed by a fresh session.
func (s State) Retryable() bool {
	return s == StateFailed || s == StateTimedOut
}

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonEncodingError   Reason = "encoding_error"
	ReasonExternalFailure Reason = "external_failure"
	ReasonTimeout         Reason = "timeout"
	ReasonCancelled       Reason = "cancelled"
)

// Sale is what gets recorded once the payment succeeds.
type Sale struct {
	EmployeeID    string
	FuelTypeID    string
	FuelAmount    decimal.Decimal
	PaymentMethod types.PaymentMethod
	Notes         string
	Meta          auditlog.RequestMeta
}

type StartRequest struct {
	// Amount is the THB amount encoded in the QR.
	Amount decimal.Decimal
	// Sale may be nil, in which case a successful payment records nothing.
	Sale *Sale
}

// Session is a point-in-time copy of a payment session.
type Session struct {
	ID             string          `json:"id"`
	TransactionRef string          `json:"transaction_ref"`
	Amount         decimal.Decimal `json:"amount"`
	MerchantRef    string          `json:"merchant_ref"`
	Payload        string          `json:"payload,omitempty"`
	State          State           `json:"state"`
	Reason         Reason          `json:"reason,omitempty"`
	Detail         string          `json:"detail,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
	FinishedAt     *time.Time      `json:"finished_at,omitempty"`
	RemainingMs    int64           `json:"remaining_ms"`

	ExternalTransactionID string `json:"external_transaction_id,omitempty"`
	TransactionID         string `json:"transaction_id,omitempty"`
	ReceiptNumber         string `json:"receipt_number,omitempty"`
	// NeedsReconciliation is set when the bank confirmed payment but the
	// sale could not be recorded as paid.
	NeedsReconciliation bool `json:"needs_reconciliation,omitempty"`

	RetryOf   string `json:"retry_of,omitempty"`
	RetriedBy string `json:"retried_by,omitempty"`
}

type EventType string

const (
	EventState   EventType = "state"
	EventTick    EventType = "tick"
	EventRetried EventType = "retried"
)

type Event struct {
	Type      EventType     `json:"type"`
	SessionID string        `json:"session_id"`
	State     State         `json:"state"`
	Reason    Reason        `json:"reason,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	Remaining time.Duration `json:"-"`
	// RemainingMs never reaches zero through ticks; only the timed_out
	// transition reports zero.
	RemainingMs int64 `json:"remaining_ms"`

	ExternalTransactionID string              `json:"external_transaction_id,omitempty"`
	Transaction           *models.Transaction `json:"transaction,omitempty"`
	NeedsReconciliation   bool                `json:"needs_reconciliation,omitempty"`
	NextSessionID         string              `json:"next_session_id,omitempty"`
	Err                   error               `json:"-"`
	Error                 string              `json:"error,omitempty"`
	At                    time.Time           `json:"at"`
}

// session is the mutable record behind a Session. Guarded by Manager.mu.
type session struct {
	Session
	req      StartRequest
	image    []byte
	traceID  string
	cancel   func()
	retrying bool
	subs     map[int]chan Event
	nextSub  int
}

func (s *session) snapshot(now time.Time) Session {
	out := s.Session
	if s.State == StateWaiting || s.State == StateGenerating {
		if d := s.ExpiresAt.Sub(now); d > 0 {
			out.RemainingMs = d.Milliseconds()
		}
	}
	return out
}
