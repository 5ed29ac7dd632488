package emvqr

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	AIDPromptPay   = "A000000677010111"
	AIDBillPayment = "A000000677010112"

	PayloadFormatVersion = "01"
	// PointOfInitiationDynamic marks a single-use QR that carries an amount.
	PointOfInitiationDynamic = "12"

	CurrencyTHB = "764"
	CountryTH   = "TH"
)

// Sub-tags of the additional data template (62).
const (
	subTagReferenceLabel = "05"
	subTagTerminalLabel  = "07"
)

// PromptPayRequest describes a dynamic PromptPay credit-transfer QR.
type PromptPayRequest struct {
	// Target is a 10-digit mobile number, a 13-digit national or tax id,
	// or a 15-digit e-wallet id. Spaces and dashes are ignored.
	Target       string
	Amount       decimal.Decimal
	MerchantName string
	// Reference ends up in 62/05 so the bank can echo it back.
	Reference     string
	TerminalLabel string
}

// BillPaymentRequest describes a dynamic QR30 bill-payment QR.
type BillPaymentRequest struct {
	BillerID      string
	Ref1          string
	Ref2          string
	Amount        decimal.Decimal
	MerchantName  string
	Reference     string
	TerminalLabel string
}

func PromptPay(req PromptPayRequest) (string, error) {
	fields, err := PromptPayFields(req)
	if err != nil {
		return "", err
	}
	return Encode(fields)
}

func PromptPayFields(req PromptPayRequest) ([]Field, error) {
	target, err := promptPayTarget(req.Target)
	if err != nil {
		return nil, err
	}
	account := Template(TagPromptPay, Leaf("00", AIDPromptPay), target)
	return commonFields(account, req.Amount, req.MerchantName, req.Reference, req.TerminalLabel)
}

func ThaiQR30(req BillPaymentRequest) (string, error) {
	fields, err := BillPaymentFields(req)
	if err != nil {
		return "", err
	}
	return Encode(fields)
}

func BillPaymentFields(req BillPaymentRequest) ([]Field, error) {
	if req.BillerID == "" {
		return nil, &EncodingError{Tag: TagBillPayment, Reason: "biller id is required"}
	}
	if req.Ref1 == "" {
		return nil, &EncodingError{Tag: TagBillPayment, Reason: "reference 1 is required"}
	}
	children := []Field{
		Leaf("00", AIDBillPayment),
		Leaf("01", req.BillerID),
		Leaf("02", req.Ref1),
	}
	if req.Ref2 != "" {
		children = append(children, Leaf("03", req.Ref2))
	}
	account := Template(TagBillPayment, children...)
	return commonFields(account, req.Amount, req.MerchantName, req.Reference, req.TerminalLabel)
}

func commonFields(account Field, amount decimal.Decimal, name, reference, terminal string) ([]Field, error) {
	formatted, err := FormatAmount(amount)
	if err != nil {
		return nil, err
	}
	fields := []Field{
		Leaf(TagPayloadFormat, PayloadFormatVersion),
		Leaf(TagPointOfInitiation, PointOfInitiationDynamic),
		account,
		Leaf(TagCurrency, CurrencyTHB),
		Leaf(TagAmount, formatted),
		Leaf(TagCountry, CountryTH),
	}
	if name != "" {
		fields = append(fields, Leaf(TagMerchantName, name))
	}
	var extra []Field
	if reference != "" {
		extra = append(extra, Leaf(subTagReferenceLabel, reference))
	}
	if terminal != "" {
		extra = append(extra, Leaf(subTagTerminalLabel, terminal))
	}
	if len(extra) > 0 {
		fields = append(fields, Template(TagAdditionalData, extra...))
	}
	return fields, nil
}

func promptPayTarget(target string) (Field, error) {
	digits := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, target)
	for i := 0; i < len(digits); i++ {
		if !isDigit(digits[i]) {
			return Field{}, &EncodingError{Tag: TagPromptPay, Reason: "target must contain only digits"}
		}
	}
	switch {
	case len(digits) == 10 && digits[0] == '0':
		// 0812345678 -> 0066812345678
		return Leaf("01", "0066"+digits[1:]), nil
	case len(digits) == 13:
		return Leaf("02", digits), nil
	case len(digits) == 15:
		return Leaf("03", digits), nil
	default:
		return Field{}, &EncodingError{Tag: TagPromptPay, Reason: "target must be a mobile number, a 13-digit id or a 15-digit e-wallet id"}
	}
}

// Summary is the decoded view of a PromptPay or QR30 payload.
type Summary struct {
	Scheme        string
	Target        string
	BillerID      string
	Ref1          string
	Ref2          string
	Amount        decimal.Decimal
	Currency      string
	Country       string
	MerchantName  string
	Reference     string
	TerminalLabel string
}

const (
	SchemePromptPay   = "promptpay"
	SchemeBillPayment = "qr30"
)

// Decode parses payload and extracts the well-known fields.
func Decode(payload string) (*Summary, error) {
	fields, err := Parse(payload)
	if err != nil {
		return nil, err
	}
	s := &Summary{}
	if f, ok := Find(fields, TagPromptPay); ok {
		s.Scheme = SchemePromptPay
		for _, c := range f.Children {
			if c.Tag != "00" {
				s.Target = c.Value
			}
		}
	}
	if f, ok := Find(fields, TagBillPayment); ok {
		s.Scheme = SchemeBillPayment
		for _, c := range f.Children {
			switch c.Tag {
			case "01":
				s.BillerID = c.Value
			case "02":
				s.Ref1 = c.Value
			case "03":
				s.Ref2 = c.Value
			}
		}
	}
	if f, ok := Find(fields, TagAmount); ok {
		if s.Amount, err = decimal.NewFromString(f.Value); err != nil {
			return nil, &EncodingError{Tag: TagAmount, Reason: "amount is not a decimal number"}
		}
	}
	if f, ok := Find(fields, TagCurrency); ok {
		s.Currency = f.Value
	}
	if f, ok := Find(fields, TagCountry); ok {
		s.Country = f.Value
	}
	if f, ok := Find(fields, TagMerchantName); ok {
		s.MerchantName = f.Value
	}
	if f, ok := Find(fields, TagAdditionalData); ok {
		if c, ok := Find(f.Children, subTagReferenceLabel); ok {
			s.Reference = c.Value
		}
		if c, ok := Find(f.Children, subTagTerminalLabel); ok {
			s.TerminalLabel = c.Value
		}
	}
	return s, nil
}
