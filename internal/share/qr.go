package share

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultQRSize is the rendered QR edge length in pixels.
const DefaultQRSize = 256

// QRPNG renders a viewer URL as a PNG QR code. Medium error correction keeps
// long fragment URLs scannable.
func QRPNG(viewerURL string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(viewerURL, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("share: qr encode: %w", err)
	}
	return png, nil
}
