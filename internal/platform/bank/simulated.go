package bank

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// SimulatedChecker stands in for a bank integration. Every check succeeds
// with probability successRate unless the reference was settled explicitly
// through Approve or Decline.
type SimulatedChecker struct {
	successRate float64

	mu        sync.Mutex
	overrides map[string]StatusResult
	calls     map[string]int
}

func NewSimulatedChecker(successRate float64) *SimulatedChecker {
	return &SimulatedChecker{
		successRate: successRate,
		overrides:   make(map[string]StatusResult),
		calls:       make(map[string]int),
	}
}

func (s *SimulatedChecker) CheckStatus(ctx context.Context, transactionRef string) (*StatusResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[transactionRef]++

	if r, ok := s.overrides[transactionRef]; ok {
		return &r, nil
	}
	if s.successRate > 0 && rand.Float64() < s.successRate {
		return &StatusResult{
			Status:                StatusSuccess,
			ExternalTransactionID: fmt.Sprintf("TH%010d", rand.Int63n(1e10)),
		}, nil
	}
	return &StatusResult{Status: StatusPending}, nil
}

// Approve makes every later check of transactionRef report success.
func (s *SimulatedChecker) Approve(transactionRef, externalTransactionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[transactionRef] = StatusResult{Status: StatusSuccess, ExternalTransactionID: externalTransactionID}
}

// Decline makes every later check of transactionRef report failure.
func (s *SimulatedChecker) Decline(transactionRef, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[transactionRef] = StatusResult{Status: StatusFailed, Reason: reason}
}

// Calls returns how many times transactionRef has been checked.
func (s *SimulatedChecker) Calls(transactionRef string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[transactionRef]
}
