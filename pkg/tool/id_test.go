package tool

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateReceiptNumber_Format(t *testing.T) {
	at := time.Date(2025, 10, 15, 14, 30, 5, 0, time.UTC)
	got := GenerateReceiptNumber(at)
	require.Regexp(t, regexp.MustCompile(`^GS251015143005[A-Z2-7]{4}$`), got)
}

func TestGenerateReceiptNumber_RandomSuffix(t *testing.T) {
	at := time.Now()
	seen := map[string]struct{}{}
	for i := 0; i < 64; i++ {
		seen[GenerateReceiptNumber(at)] = struct{}{}
	}
	require.Greater(t, len(seen), 60)
}

func TestGenerateTransactionRef(t *testing.T) {
	got := GenerateTransactionRef("TXN", time.UnixMilli(1760000000000))
	require.Regexp(t, `^TXN1760000000000\d{3}$`, got)
}
