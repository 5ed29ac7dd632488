// Package emvqr builds and parses the EMV-style tag-length-value payloads
// carried by Thai PromptPay and QR30 bill-payment QR codes.
//
// Every value is prefixed by a two-digit tag and a two-digit decimal length
// counting the UTF-8 bytes of the value, so no single value (including the
// serialized children of a template) may exceed 99 bytes. The payload ends
// with tag 63, length 04 and a four character checksum computed over every
// preceding byte.
//
// The checksum is the first four hex digits of an MD5 digest. It is a
// placeholder, NOT the CRC-16/CCITT-FALSE checksum mandated by EMVCo, and
// payloads produced here are not expected to be accepted by real banking
// apps or terminals.
package emvqr

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// MaxValueLength is the largest value the two-digit length field can describe.
const MaxValueLength = 99

const (
	TagPayloadFormat     = "00"
	TagPointOfInitiation = "01"
	TagPromptPay         = "29"
	TagBillPayment       = "30"
	TagCurrency          = "53"
	TagAmount            = "54"
	TagCountry           = "58"
	TagMerchantName      = "59"
	TagAdditionalData    = "62"
	TagChecksum          = "63"
)

// checksumPrefix is the tag and length that precede the checksum value.
const checksumPrefix = TagChecksum + "04"

// Field is either a leaf carrying Value or a template whose Children are
// serialized and wrapped with the field's own tag and length.
type Field struct {
	Tag      string
	Value    string
	Children []Field
}

func Leaf(tag, value string) Field {
	return Field{Tag: tag, Value: value}
}

func Template(tag string, children ...Field) Field {
	if children == nil {
		children = []Field{}
	}
	return Field{Tag: tag, Children: children}
}

func (f Field) IsTemplate() bool {
	return f.Children != nil
}

// Find returns the first field with tag, searching only the given level.
func Find(fields []Field, tag string) (Field, bool) {
	for _, f := range fields {
		if f.Tag == tag {
			return f, true
		}
	}
	return Field{}, false
}

// Encode serializes fields and appends the checksum field.
func Encode(fields []Field) (string, error) {
	if _, ok := Find(fields, TagChecksum); ok {
		return "", &EncodingError{Tag: TagChecksum, Reason: "checksum tag is reserved"}
	}
	body, err := EncodeFields(fields)
	if err != nil {
		return "", err
	}
	body += checksumPrefix
	return body + Checksum(body), nil
}

// EncodeFields serializes fields without a checksum.
func EncodeFields(fields []Field) (string, error) {
	var b strings.Builder
	for _, f := range fields {
		s, err := encodeField(f)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func encodeField(f Field) (string, error) {
	if !validTag(f.Tag) {
		return "", &EncodingError{Tag: f.Tag, Reason: "tag must be two ASCII digits"}
	}
	value := f.Value
	if f.IsTemplate() {
		var err error
		if value, err = EncodeFields(f.Children); err != nil {
			return "", err
		}
	}
	if len(value) > MaxValueLength {
		return "", &EncodingError{Tag: f.Tag, Reason: fmt.Sprintf("encoded value is %d bytes, max %d", len(value), MaxValueLength)}
	}
	return f.Tag + fmt.Sprintf("%02d", len(value)) + value, nil
}

func validTag(tag string) bool {
	return len(tag) == 2 && isDigit(tag[0]) && isDigit(tag[1])
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Checksum returns the four character checksum of s. See the package
// documentation: this is not CRC-16 and is not interoperable.
func Checksum(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:4]
}

// Parse reverses Encode. It verifies the trailing checksum and returns the
// fields that precede it. Tags 26-51 (merchant account information) and 62
// (additional data) are parsed as templates.
func Parse(payload string) ([]Field, error) {
	if len(payload) < len(checksumPrefix)+4 {
		return nil, fmt.Errorf("%w: payload too short", ErrMalformedPayload)
	}
	body, sum := payload[:len(payload)-4], payload[len(payload)-4:]
	if !strings.HasSuffix(body, checksumPrefix) {
		return nil, fmt.Errorf("%w: missing checksum field", ErrMalformedPayload)
	}
	if Checksum(body) != sum {
		return nil, ErrChecksumMismatch
	}
	return parseFields(body[:len(body)-len(checksumPrefix)], true)
}

func parseFields(s string, topLevel bool) ([]Field, error) {
	fields := []Field{}
	for len(s) > 0 {
		if len(s) < 4 {
			return nil, fmt.Errorf("%w: truncated field header %q", ErrMalformedPayload, s)
		}
		tag := s[:2]
		if !validTag(tag) {
			return nil, fmt.Errorf("%w: invalid tag %q", ErrMalformedPayload, tag)
		}
		n, err := strconv.Atoi(s[2:4])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid length for tag %s", ErrMalformedPayload, tag)
		}
		if len(s) < 4+n {
			return nil, fmt.Errorf("%w: tag %s declares %d bytes, %d left", ErrMalformedPayload, tag, n, len(s)-4)
		}
		value := s[4 : 4+n]
		if topLevel && isTemplateTag(tag) {
			children, err := parseFields(value, false)
			if err != nil {
				return nil, fmt.Errorf("tag %s: %w", tag, err)
			}
			fields = append(fields, Template(tag, children...))
		} else {
			fields = append(fields, Leaf(tag, value))
		}
		s = s[4+n:]
	}
	return fields, nil
}

func isTemplateTag(tag string) bool {
	n, _ := strconv.Atoi(tag)
	return (n >= 26 && n <= 51) || tag == TagAdditionalData
}
