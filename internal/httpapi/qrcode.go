package httpapi

import (
	"github.com/skip2/go-qrcode"
)

// QRGenerator renders a link as a PNG QR code.
type QRGenerator interface {
	Generate(link string, size int) ([]byte, error)
}

// DefaultQRGenerator encodes with medium error correction.
type DefaultQRGenerator struct{}

func (DefaultQRGenerator) Generate(link string, size int) ([]byte, error) {
	return qrcode.Encode(link, qrcode.Medium, size)
}
