// Package qrimage renders payment payloads as scannable PNG images.
package qrimage

import (
	"encoding/base64"
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/fx"
)

const DefaultSize = 300

var ErrEmptyPayload = errors.New("qrimage: empty payload")

type Renderer struct {
	size  int
	level qrcode.RecoveryLevel
}

func New() *Renderer {
	return &Renderer{size: DefaultSize, level: qrcode.Medium}
}

func NewWithSize(size int) *Renderer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Renderer{size: size, level: qrcode.Medium}
}

// Render encodes payload as a size x size PNG.
func (r *Renderer) Render(payload string) ([]byte, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	png, err := qrcode.Encode(payload, r.level, r.size)
	if err != nil {
		return nil, fmt.Errorf("qrimage: encode: %w", err)
	}
	return png, nil
}

// DataURL wraps a PNG for direct use in an <img src>.
func DataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

var Module = fx.Options(
	fx.Provide(New),
)
