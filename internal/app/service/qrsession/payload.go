package qrsession

import (
	"github.com/shopspring/decimal"

	"github.com/fatflowers/fuelpos/pkg/config"
	"github.com/fatflowers/fuelpos/pkg/emvqr"
)

// PayloadBuilder encodes the QR payload for one transaction reference.
type PayloadBuilder func(transactionRef string, amount decimal.Decimal) (string, error)

// NewPayloadBuilder returns a PromptPay or QR30 builder for the station's
// merchant identity, and the merchant reference it pays into.
func NewPayloadBuilder(merchant config.MerchantConfig, mode config.QRMode) (PayloadBuilder, string) {
	if mode == config.QRModeQR30 {
		return func(ref string, amount decimal.Decimal) (string, error) {
			return emvqr.ThaiQR30(emvqr.BillPaymentRequest{
				BillerID:      merchant.BillerID,
				Ref1:          ref,
				Amount:        amount,
				MerchantName:  merchant.Name,
				TerminalLabel: merchant.TerminalID,
			})
		}, merchant.BillerID
	}
	return func(ref string, amount decimal.Decimal) (string, error) {
		return emvqr.PromptPay(emvqr.PromptPayRequest{
			Target:        merchant.PromptPayID,
			Amount:        amount,
			MerchantName:  merchant.Name,
			Reference:     ref,
			TerminalLabel: merchant.TerminalID,
		})
	}, merchant.PromptPayID
}
