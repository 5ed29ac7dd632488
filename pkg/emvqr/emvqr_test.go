package emvqr

import (
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestEncode_LayoutAndChecksum(t *testing.T) {
	payload, err := Encode([]Field{
		Leaf(TagPayloadFormat, "01"),
		Template(TagPromptPay, Leaf("00", AIDPromptPay), Leaf("02", "0105558555555")),
	})
	require.NoError(t, err)

	body := "000201" + "2937" + "0016A000000677010111" + "02130105558555555" + "6304"
	require.Equal(t, body+Checksum(body), payload)
}

func TestEncode_LengthCountsBytes(t *testing.T) {
	// Thai characters are three bytes each in UTF-8.
	out, err := EncodeFields([]Field{Leaf(TagMerchantName, "ปั๊ม")})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "5912"))
}

func TestEncode_RejectsOversizedValues(t *testing.T) {
	_, err := Encode([]Field{Leaf(TagMerchantName, strings.Repeat("a", 100))})
	require.ErrorIs(t, err, ErrEncoding)

	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, TagMerchantName, encErr.Tag)

	_, err = Encode([]Field{Leaf(TagMerchantName, strings.Repeat("a", 99))})
	require.NoError(t, err)
}

func TestEncode_RejectsOversizedTemplate(t *testing.T) {
	// Each child fits on its own, the template does not.
	_, err := Encode([]Field{Template(TagAdditionalData,
		Leaf("05", strings.Repeat("r", 50)),
		Leaf("07", strings.Repeat("t", 50)),
	)})
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, TagAdditionalData, encErr.Tag)
}

func TestEncode_RejectsBadTags(t *testing.T) {
	for _, tag := range []string{"", "1", "ab", "123"} {
		_, err := Encode([]Field{Leaf(tag, "x")})
		require.ErrorIs(t, err, ErrEncoding, "tag %q", tag)
	}
	_, err := Encode([]Field{Leaf(TagChecksum, "ABCD")})
	require.ErrorIs(t, err, ErrEncoding)
}

func TestParse_RoundTrip(t *testing.T) {
	targets := []string{"0105558555555", "0812345678", "123456789012345"}
	amounts := []string{"0.01", "1", "250.00", "1234.5", "99999.99"}

	for _, target := range targets {
		for _, amount := range amounts {
			fields, err := PromptPayFields(PromptPayRequest{
				Target:        target,
				Amount:        decimal.RequireFromString(amount),
				MerchantName:  "Station 7",
				Reference:     "TXN1700000000000042",
				TerminalLabel: "POS01",
			})
			require.NoError(t, err)

			payload, err := Encode(fields)
			require.NoError(t, err)

			parsed, err := Parse(payload)
			require.NoError(t, err)
			require.Equal(t, fields, parsed, "target=%s amount=%s", target, amount)
		}
	}
}

func TestParse_DetectsTampering(t *testing.T) {
	payload, err := PromptPay(PromptPayRequest{Target: "0105558555555", Amount: decimal.RequireFromString("250")})
	require.NoError(t, err)

	tampered := strings.Replace(payload, "250.00", "150.00", 1)
	_, err = Parse(tampered)
	require.ErrorIs(t, err, ErrChecksumMismatch)

	_, err = Parse("0002")
	require.ErrorIs(t, err, ErrMalformedPayload)

	body := "00020" + "6304"
	_, err = Parse(body + Checksum(body))
	require.ErrorIs(t, err, ErrMalformedPayload)
}

func TestAmountValidation(t *testing.T) {
	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := AmountFromFloat(bad)
		require.ErrorIs(t, err, ErrEncoding, "amount %v", bad)
	}

	d, err := AmountFromFloat(249.999999)
	require.NoError(t, err)
	require.Equal(t, "250.00", d.StringFixed(2))

	_, err = ParseAmount("12.345")
	require.ErrorIs(t, err, ErrEncoding)
	_, err = ParseAmount("abc")
	require.ErrorIs(t, err, ErrEncoding)

	d, err = ParseAmount(" 250 ")
	require.NoError(t, err)
	s, err := FormatAmount(d)
	require.NoError(t, err)
	require.Equal(t, "250.00", s)
}

func TestPromptPay_Targets(t *testing.T) {
	cases := map[string]Field{
		"0812345678":      Leaf("01", "0066812345678"),
		"081-234-5678":    Leaf("01", "0066812345678"),
		"0105558555555":   Leaf("02", "0105558555555"),
		"123456789012345": Leaf("03", "123456789012345"),
	}
	for in, want := range cases {
		got, err := promptPayTarget(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "12345", "08123456ab", "1812345678"} {
		_, err := promptPayTarget(bad)
		require.ErrorIs(t, err, ErrEncoding, bad)
	}
}

func TestPromptPay_AmountRequired(t *testing.T) {
	_, err := PromptPay(PromptPayRequest{Target: "0105558555555", Amount: decimal.Zero})
	require.ErrorIs(t, err, ErrEncoding)
}

func TestDecode(t *testing.T) {
	payload, err := PromptPay(PromptPayRequest{
		Target:        "0105558555555",
		Amount:        decimal.RequireFromString("250"),
		MerchantName:  "Station 7",
		Reference:     "TXN1",
		TerminalLabel: "POS01",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(payload, "000201010212"))

	s, err := Decode(payload)
	require.NoError(t, err)
	require.Equal(t, SchemePromptPay, s.Scheme)
	require.Equal(t, "0105558555555", s.Target)
	require.True(t, s.Amount.Equal(decimal.RequireFromString("250")))
	require.Equal(t, CurrencyTHB, s.Currency)
	require.Equal(t, CountryTH, s.Country)
	require.Equal(t, "Station 7", s.MerchantName)
	require.Equal(t, "TXN1", s.Reference)
	require.Equal(t, "POS01", s.TerminalLabel)
}

func TestThaiQR30(t *testing.T) {
	payload, err := ThaiQR30(BillPaymentRequest{
		BillerID: "010555855555501",
		Ref1:     "TXN1",
		Ref2:     "PUMP3",
		Amount:   decimal.RequireFromString("99.5"),
	})
	require.NoError(t, err)

	s, err := Decode(payload)
	require.NoError(t, err)
	require.Equal(t, SchemeBillPayment, s.Scheme)
	require.Equal(t, "010555855555501", s.BillerID)
	require.Equal(t, "TXN1", s.Ref1)
	require.Equal(t, "PUMP3", s.Ref2)
	require.Equal(t, "99.50", s.Amount.StringFixed(2))

	_, err = ThaiQR30(BillPaymentRequest{Ref1: "x", Amount: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, ErrEncoding)
	_, err = ThaiQR30(BillPaymentRequest{BillerID: "x", Amount: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, ErrEncoding)
}
