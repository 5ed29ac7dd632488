package emvqr

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoding matches every *EncodingError via errors.Is.
	ErrEncoding = errors.New("emvqr: encoding error")

	ErrMalformedPayload = errors.New("emvqr: malformed payload")
	ErrChecksumMismatch = errors.New("emvqr: checksum mismatch")
)

// EncodingError reports a field that cannot be represented in a payload.
type EncodingError struct {
	Tag    string
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Tag == "" {
		return "emvqr: " + e.Reason
	}
	return fmt.Sprintf("emvqr: tag %s: %s", e.Tag, e.Reason)
}

func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}
