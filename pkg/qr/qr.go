// Package qr renders QR code images for class tokens.
package qr

import qrcode "github.com/skip2/go-qrcode"

// PNG encodes the payload as a QR code PNG with the given edge size in pixels.
func PNG(payload string, size int) ([]byte, error) {
	return qrcode.Encode(payload, qrcode.Medium, size)
}
