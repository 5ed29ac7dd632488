package tool

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	mrand "math/rand"
	"time"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

var receiptEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateReceiptNumber returns "GS" + a second-resolution timestamp + 4 random
// base32 characters, e.g. GS251015143005K7QD.
func GenerateReceiptNumber(now time.Time) string {
	var b [3]byte
	_, _ = rand.Read(b[:])
	return "GS" + now.Format("060102150405") + receiptEncoding.EncodeToString(b[:])[:4]
}

// GenerateTransactionRef returns the bank-facing reference for one QR session.
func GenerateTransactionRef(prefix string, now time.Time) string {
	return fmt.Sprintf("%s%d%03d", prefix, now.UnixMilli(), mrand.Intn(1000))
}
