package bank

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/fuelpos/pkg/config"
)

func TestSimulatedChecker(t *testing.T) {
	ctx := context.Background()
	s := NewSimulatedChecker(0)

	r, err := s.CheckStatus(ctx, "TXN1")
	require.NoError(t, err)
	require.Equal(t, StatusPending, r.Status)

	s.Approve("TXN1", "TH123")
	r, err = s.CheckStatus(ctx, "TXN1")
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, r.Status)
	require.Equal(t, "TH123", r.ExternalTransactionID)

	s.Decline("TXN2", "insufficient_funds")
	r, err = s.CheckStatus(ctx, "TXN2")
	require.NoError(t, err)
	require.Equal(t, StatusFailed, r.Status)
	require.Equal(t, 2, s.Calls("TXN1"))

	always := NewSimulatedChecker(1)
	r, err = always.CheckStatus(ctx, "TXN3")
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, r.Status)
	require.NotEmpty(t, r.ExternalTransactionID)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.CheckStatus(cctx, "TXN1")
	require.ErrorIs(t, err, ErrTransient)
}

func TestHTTPChecker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/payments/OK/status":
			_, _ = w.Write([]byte(`{"status":"success","external_transaction_id":"TH123"}`))
		case "/payments/DECLINED/status":
			_, _ = w.Write([]byte(`{"status":"failed","reason":"declined"}`))
		case "/payments/WAIT/status":
			_, _ = w.Write([]byte(`{"status":"pending"}`))
		case "/payments/BROKEN/status":
			_, _ = w.Write([]byte(`{"status":"teapot"}`))
		case "/payments/DOWN/status":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewHTTPChecker(srv.URL+"/", "secret", time.Second)
	ctx := context.Background()

	r, err := c.CheckStatus(ctx, "OK")
	require.NoError(t, err)
	require.Equal(t, &StatusResult{Status: StatusSuccess, ExternalTransactionID: "TH123"}, r)

	r, err = c.CheckStatus(ctx, "DECLINED")
	require.NoError(t, err)
	require.Equal(t, StatusFailed, r.Status)
	require.Equal(t, "declined", r.Reason)

	r, err = c.CheckStatus(ctx, "WAIT")
	require.NoError(t, err)
	require.Equal(t, StatusPending, r.Status)

	r, err = c.CheckStatus(ctx, "UNKNOWN")
	require.NoError(t, err)
	require.Equal(t, StatusPending, r.Status)

	_, err = c.CheckStatus(ctx, "BROKEN")
	require.ErrorIs(t, err, ErrTransient)
	_, err = c.CheckStatus(ctx, "DOWN")
	require.ErrorIs(t, err, ErrTransient)
}

type flakyChecker struct{ calls int }

func (f *flakyChecker) CheckStatus(context.Context, string) (*StatusResult, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func TestBreakerChecker_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &flakyChecker{}
	b := NewBreakerChecker(next, config.BreakerConfig{
		MaxRequests:         1,
		Timeout:             time.Minute,
		ConsecutiveFailures: 2,
	}, zap.NewNop().Sugar())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := b.CheckStatus(ctx, "TXN")
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.CheckStatus(ctx, "TXN")
	require.ErrorIs(t, err, ErrTransient)
	require.Equal(t, 2, next.calls)
}

func TestNewStatusChecker(t *testing.T) {
	log := zap.NewNop().Sugar()

	c, err := NewStatusChecker(&config.Config{Bank: config.BankConfig{Mode: config.BankModeSimulated}}, log)
	require.NoError(t, err)
	require.IsType(t, &SimulatedChecker{}, c)

	c, err = NewStatusChecker(&config.Config{Bank: config.BankConfig{
		Mode:    config.BankModeHTTP,
		BaseURL: "http://bank.local",
		Breaker: config.BreakerConfig{Enabled: true, ConsecutiveFailures: 3},
	}}, log)
	require.NoError(t, err)
	require.IsType(t, &BreakerChecker{}, c)

	_, err = NewStatusChecker(&config.Config{Bank: config.BankConfig{Mode: config.BankModeHTTP}}, log)
	require.Error(t, err)
	_, err = NewStatusChecker(&config.Config{Bank: config.BankConfig{Mode: "fax"}}, log)
	require.Error(t, err)
}
