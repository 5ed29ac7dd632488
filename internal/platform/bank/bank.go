// Package bank talks to the payment network to learn whether a QR payment
// identified by its transaction reference has been completed.
package bank

import (
	"context"
	"errors"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ErrTransient marks a check that said nothing about the payment itself.
// Callers keep polling.
var ErrTransient = errors.New("bank: transient status check failure")

type StatusResult struct {
	Status                Status `json:"status"`
	ExternalTransactionID string `json:"external_transaction_id,omitempty"`
	Reason                string `json:"reason,omitempty"`
}

type StatusChecker interface {
	CheckStatus(ctx context.Context, transactionRef string) (*StatusResult, error)
}
