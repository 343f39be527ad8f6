package exportsvc

import (
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// QRCode encodes `url` as a PNG QR code.
func QRCode(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		return nil, errors.Wrap(err, "encoding qr code")
	}
	return png, nil
}
