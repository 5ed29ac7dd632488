package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/fuelpos/pkg/emvqr"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEncodeDecode(t *testing.T) {
	out, err := run(t, "encode", "--target", "081-234-5678", "--amount", "250", "--ref", "TXN1")
	require.NoError(t, err)
	payload := strings.TrimSpace(out)

	s, err := emvqr.Decode(payload)
	require.NoError(t, err)
	require.Equal(t, emvqr.SchemePromptPay, s.Scheme)
	require.Equal(t, "250.00", s.Amount.StringFixed(2))

	out, err = run(t, "decode", payload)
	require.NoError(t, err)
	require.Contains(t, out, "promptpay")
	require.Contains(t, out, "250.00")
	require.Contains(t, out, "TXN1")
}

func TestEncodeQR30WritesPNG(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bill.png")
	out, err := run(t, "encode", "--qr30", "--biller", "010555855555501", "--ref1", "INV001", "--amount", "99.50", "-o", file)
	require.NoError(t, err)
	require.Contains(t, out, "A000000677010112")

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(b, []byte("\x89PNG")))
}

func TestEncodeRejectsBadInput(t *testing.T) {
	_, err := run(t, "encode", "--target", "0812345678", "--amount", "-1")
	require.ErrorIs(t, err, emvqr.ErrEncoding)

	_, err = run(t, "encode", "--amount", "10")
	require.Error(t, err)

	_, err = run(t, "encode", "--target", "0812345678")
	require.Error(t, err)
}

func TestDecodeRejectsTamperedPayload(t *testing.T) {
	payload, err := emvqr.PromptPay(emvqr.PromptPayRequest{Target: "0812345678", Amount: mustAmount(t, "10")})
	require.NoError(t, err)
	tampered := strings.Replace(payload, "10.00", "90.00", 1)

	_, err = run(t, "decode", tampered)
	require.ErrorIs(t, err, emvqr.ErrChecksumMismatch)
}

func TestRender(t *testing.T) {
	payload, err := emvqr.PromptPay(emvqr.PromptPayRequest{Target: "0812345678", Amount: mustAmount(t, "10")})
	require.NoError(t, err)
	file := filepath.Join(t.TempDir(), "qr.png")

	out, err := run(t, "render", payload, "-o", file, "-s", "128")
	require.NoError(t, err)
	require.Contains(t, out, "wrote")
	_, err = os.Stat(file)
	require.NoError(t, err)

	_, err = run(t, "render", "not-a-payload", "-o", file)
	require.Error(t, err)
}

func mustAmount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := emvqr.ParseAmount(s)
	require.NoError(t, err)
	return d
}
