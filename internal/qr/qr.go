// Package qr renders QR code images for public profile URLs.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered image size in pixels
const DefaultSize = 512

// Encoder renders text into a QR code image.
// Implementations must be pure: same input, same output, no state.
type Encoder interface {
	// Encode renders text as a PNG image of size x size pixels
	Encode(text string, size int) ([]byte, error)
}

// PNGEncoder implements Encoder producing PNG images with medium
// error correction, black modules on a white background
type PNGEncoder struct{}

// Ensure PNGEncoder implements Encoder interface
var _ Encoder = (*PNGEncoder)(nil)

// NewPNGEncoder creates a new PNG QR encoder
func NewPNGEncoder() *PNGEncoder {
	return &PNGEncoder{}
}

// Encode renders text as a PNG QR code
func (e *PNGEncoder) Encode(text string, size int) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("text is empty")
	}
	if size <= 0 {
		size = DefaultSize
	}

	png, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	return png, nil
}
